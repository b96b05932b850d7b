package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rotation/assignment"
	"rotation/models"
)

// Store implements the coordinator's persistence contract on gorm. Inside
// Transact every method runs on the transaction handle, so aggregation,
// duplicate check and insert observe one snapshot.
type Store struct {
	db *gorm.DB
}

var (
	_ assignment.Store = (*Store)(nil)
	_ assignment.Tx    = (*txStore)(nil)
)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

const summariesQuery = `
SELECT e.id AS employee_id,
       e.name,
       e.badge,
       COALESCE(o.hours, 0) + COALESCE(a.hours, 0) AS total_hours,
       la.last_assigned_at
FROM employees e
LEFT JOIN (
    SELECT employee_id, SUM(hours) AS hours
    FROM overtime_entries
    WHERE occurred_at >= ? AND occurred_at <= ?
    GROUP BY employee_id
) o ON o.employee_id = e.id
LEFT JOIN (
    SELECT employee_id, SUM(hours_charged) AS hours
    FROM assignments
    WHERE period_week = ?
    GROUP BY employee_id
) a ON a.employee_id = e.id
LEFT JOIN (
    SELECT employee_id, MAX(created_at) AS last_assigned_at
    FROM assignments
    GROUP BY employee_id
) la ON la.employee_id = e.id
WHERE e.active
ORDER BY e.id`

// Summaries aggregates, per active employee, overtime hours inside the
// period boundaries plus assignment hours charged to the period, and the
// most recent assignment timestamp across all periods.
func (s *Store) Summaries(ctx context.Context, periodWeek string, start, end time.Time) ([]models.EmployeeSummary, error) {
	var summaries []models.EmployeeSummary
	err := s.db.WithContext(ctx).Raw(summariesQuery, start, end, periodWeek).Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate summaries for %s: %w", periodWeek, err)
	}
	return summaries, nil
}

func (s *Store) Transact(ctx context.Context, fn func(tx assignment.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{Store{db: tx}})
	})
}

type txStore struct {
	Store
}

// LockPeriod takes a transaction-scoped advisory lock; Postgres releases it
// at commit or rollback.
func (t *txStore) LockPeriod(ctx context.Context, key int64) error {
	return t.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", key).Error
}

func (t *txStore) HasAssignment(ctx context.Context, employeeID uuid.UUID, periodWeek string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("employee_id = ? AND period_week = ?", employeeID, periodWeek).
		Count(&count).Error
	return count > 0, err
}

func (t *txStore) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	result := t.db.WithContext(ctx).Create(a)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("assignment insert for employee %s period %s affected no rows", a.EmployeeID, a.PeriodWeek)
	}
	return nil
}

func (t *txStore) DefaultRefusalHours(ctx context.Context) (float64, error) {
	var cfg models.Config
	if err := t.db.WithContext(ctx).First(&cfg, "id = ?", 1).Error; err != nil {
		return 0, fmt.Errorf("load config: %w", err)
	}
	return cfg.DefaultRefusalHours, nil
}
