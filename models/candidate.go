package models

import (
	"time"

	"github.com/google/uuid"
)

// EmployeeSummary is the per-employee aggregate for one period: overtime
// hours plus charged assignment hours inside the period boundaries, and the
// most recent assignment timestamp across all periods. Derived, not
// persisted.
type EmployeeSummary struct {
	EmployeeID     uuid.UUID  `json:"employee_id"`
	Name           string     `json:"name"`
	Badge          string     `json:"badge"`
	TotalHours     float64    `json:"total_hours"`
	LastAssignedAt *time.Time `json:"last_assigned_at"`
}

// Candidate is a summary annotated with its 1-based position in the fairness
// ordering. Ranks are recomputed on every ranking call, never cached.
type Candidate struct {
	EmployeeSummary
	TieBreakRank int `json:"tie_break_rank"`
}
