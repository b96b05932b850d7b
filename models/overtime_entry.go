package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OvertimeSource string

const (
	SourceManual OvertimeSource = "manual"
	SourceImport OvertimeSource = "import"
)

// OvertimeEntry is immutable once created; it contributes to the aggregate
// totals of whichever period its OccurredAt timestamp falls in.
type OvertimeEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	EmployeeID uuid.UUID      `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   Employee       `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Hours      float64        `gorm:"not null;type:numeric(5,2)" json:"hours"`
	OccurredAt time.Time      `gorm:"not null" json:"occurred_at"`
	Source     OvertimeSource `gorm:"not null;size:20;default:manual" json:"source"`
	Note       string         `gorm:"size:500" json:"note,omitempty"`
}

func (e *OvertimeEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Source == "" {
		e.Source = SourceManual
	}
	return nil
}
