package assignment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rotation/models"
)

// Reader provides the aggregate the ranking consumes: one summary per active
// employee, with total hours inside [start, end] plus charged assignment
// hours for the period, and the most recent assignment timestamp across all
// periods.
type Reader interface {
	Summaries(ctx context.Context, periodWeek string, start, end time.Time) ([]models.EmployeeSummary, error)
}

// Tx is the transaction-scoped contract for an assignment decision. All of
// its methods observe one consistent snapshot.
type Tx interface {
	Reader

	// LockPeriod takes the storage-side serialization lock for the given
	// key; it is held until the transaction ends.
	LockPeriod(ctx context.Context, key int64) error
	HasAssignment(ctx context.Context, employeeID uuid.UUID, periodWeek string) (bool, error)
	// CreateAssignment inserts the row and must fail if no row results.
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	DefaultRefusalHours(ctx context.Context) (float64, error)
}

// Store is the coordinator's view of persistence.
type Store interface {
	Reader

	// Transact runs fn in a single transaction, committing when fn returns
	// nil and rolling back otherwise.
	Transact(ctx context.Context, fn func(tx Tx) error) error
}
