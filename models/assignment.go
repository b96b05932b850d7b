package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	StatusAssigned  AssignmentStatus = "assigned"
	StatusRefused   AssignmentStatus = "refused"
	StatusCompleted AssignmentStatus = "completed"
)

// Assignment records one overtime decision for an employee in a period.
// Create-once: rows are never updated or deleted here. The unique index on
// (employee_id, period_week) is the storage-level backstop for the
// at-most-once guarantee.
type Assignment struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	EmployeeID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_employee_period" json:"employee_id"`
	Employee     Employee         `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	PeriodWeek   string           `gorm:"not null;size:8;uniqueIndex:idx_assignments_employee_period" json:"period_week"`
	HoursCharged float64          `gorm:"not null;type:numeric(5,2)" json:"hours_charged"`
	Status       AssignmentStatus `gorm:"not null;size:20" json:"status"`
	DecidedAt    *time.Time       `json:"decided_at"`
	// TieBreakRank is the candidate's position in the ordering at the moment
	// the row was created. Diagnostic only, never re-derived from storage.
	TieBreakRank int `gorm:"not null" json:"tie_break_rank"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
