package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	Badge     string    `gorm:"uniqueIndex;not null;size:20" json:"badge"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Badge
}
