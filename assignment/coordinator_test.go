package assignment

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rotation/models"
	"rotation/period"
)

// fakeStore is an in-memory Store that mirrors the storage contract the
// coordinator relies on: serialized decisions while the period lock is held,
// commit-time visibility, and a unique (employee, period) constraint.
type fakeStore struct {
	mu           sync.Mutex
	employees    []models.Employee
	entries      []models.OvertimeEntry
	assignments  []models.Assignment
	refusalHours float64

	lockMu sync.Mutex // stands in for the storage advisory lock

	transientFails int32 // CreateAssignment calls to fail with a retryable code
	transactDelay  time.Duration
	summaryCalls   int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{refusalHours: 8}
}

func (s *fakeStore) addEmployee(id uuid.UUID, name string, active bool) {
	s.employees = append(s.employees, models.Employee{ID: id, Name: name, Badge: name, Active: active})
}

func (s *fakeStore) addEntry(employeeID uuid.UUID, hours float64, occurredAt time.Time) {
	s.entries = append(s.entries, models.OvertimeEntry{
		ID: uuid.New(), EmployeeID: employeeID, Hours: hours, OccurredAt: occurredAt,
	})
}

func (s *fakeStore) Summaries(ctx context.Context, periodWeek string, start, end time.Time) ([]models.EmployeeSummary, error) {
	atomic.AddInt32(&s.summaryCalls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.EmployeeSummary
	for _, e := range s.employees {
		if !e.Active {
			continue
		}
		sum := models.EmployeeSummary{EmployeeID: e.ID, Name: e.Name, Badge: e.Badge}
		for _, entry := range s.entries {
			if entry.EmployeeID == e.ID && !entry.OccurredAt.Before(start) && !entry.OccurredAt.After(end) {
				sum.TotalHours += entry.Hours
			}
		}
		for _, a := range s.assignments {
			if a.EmployeeID != e.ID {
				continue
			}
			if a.PeriodWeek == periodWeek {
				sum.TotalHours += a.HoursCharged
			}
			if sum.LastAssignedAt == nil || a.CreatedAt.After(*sum.LastAssignedAt) {
				created := a.CreatedAt
				sum.LastAssignedAt = &created
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *fakeStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	if s.transactDelay > 0 {
		time.Sleep(s.transactDelay)
	}
	tx := &fakeTx{s: s}
	defer tx.unlock()
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *fakeStore) commit(tx *fakeTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range tx.staged {
		for _, existing := range s.assignments {
			if existing.EmployeeID == a.EmployeeID && existing.PeriodWeek == a.PeriodWeek {
				return &pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key value"}
			}
		}
		s.assignments = append(s.assignments, a)
	}
	return nil
}

func (s *fakeStore) assignmentsForPeriod(periodWeek string) []models.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Assignment
	for _, a := range s.assignments {
		if a.PeriodWeek == periodWeek {
			out = append(out, a)
		}
	}
	return out
}

type fakeTx struct {
	s      *fakeStore
	locked bool
	staged []models.Assignment
}

func (t *fakeTx) LockPeriod(ctx context.Context, key int64) error {
	t.s.lockMu.Lock()
	t.locked = true
	return nil
}

func (t *fakeTx) unlock() {
	if t.locked {
		t.locked = false
		t.s.lockMu.Unlock()
	}
}

func (t *fakeTx) Summaries(ctx context.Context, periodWeek string, start, end time.Time) ([]models.EmployeeSummary, error) {
	return t.s.Summaries(ctx, periodWeek, start, end)
}

func (t *fakeTx) HasAssignment(ctx context.Context, employeeID uuid.UUID, periodWeek string) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, a := range t.s.assignments {
		if a.EmployeeID == employeeID && a.PeriodWeek == periodWeek {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	if atomic.AddInt32(&t.s.transientFails, -1) >= 0 {
		return &pgconn.PgError{Code: pgSerializationFailure, Message: "could not serialize access"}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	t.staged = append(t.staged, *a)
	return nil
}

func (t *fakeTx) DefaultRefusalHours(ctx context.Context) (float64, error) {
	return t.s.refusalHours, nil
}

var (
	idAlice   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	idBob     = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	idCharlie = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

const testPeriod = "2024-W01"

func newTestCoordinator(t *testing.T, store Store, opts Options) (*Coordinator, *period.Calculator) {
	t.Helper()
	calc, err := period.NewCalculator("America/New_York")
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewCoordinator(store, calc, logger, opts), calc
}

// seedScenario sets up Alice 2h, Bob 4h, Charlie 2h inside 2024-W01 with no
// prior assignments.
func seedScenario(t *testing.T, store *fakeStore, calc *period.Calculator) {
	t.Helper()
	store.addEmployee(idAlice, "Alice", true)
	store.addEmployee(idBob, "Bob", true)
	store.addEmployee(idCharlie, "Charlie", true)
	occurred := time.Date(2024, time.January, 2, 9, 0, 0, 0, calc.Location())
	store.addEntry(idAlice, 2, occurred)
	store.addEntry(idBob, 4, occurred)
	store.addEntry(idCharlie, 2, occurred)
}

func TestWhoIsNextOrdering(t *testing.T) {
	store := newFakeStore()
	coord, calc := newTestCoordinator(t, store, Options{})
	seedScenario(t, store, calc)

	candidates, err := coord.WhoIsNext(context.Background(), testPeriod)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, idAlice, candidates[0].EmployeeID)
	assert.Equal(t, idCharlie, candidates[1].EmployeeID)
	assert.Equal(t, idBob, candidates[2].EmployeeID)
	assert.Equal(t, []int{1, 2, 3}, []int{
		candidates[0].TieBreakRank, candidates[1].TieBreakRank, candidates[2].TieBreakRank,
	})
}

func TestWhoIsNextInvalidPeriod(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store, Options{})

	_, err := coord.WhoIsNext(context.Background(), "2024-W53")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Zero(t, atomic.LoadInt32(&store.summaryCalls), "validation must reject before storage access")
}

func TestAssignNextWalksTheOrdering(t *testing.T) {
	store := newFakeStore()
	coord, calc := newTestCoordinator(t, store, Options{})
	seedScenario(t, store, calc)
	ctx := context.Background()

	// First call takes the id-lowest of the two-hour tie.
	first, err := coord.AssignNext(ctx, testPeriod, 8, false)
	require.NoError(t, err)
	assert.Equal(t, idAlice, first.EmployeeID)
	assert.Equal(t, models.StatusAssigned, first.Status)
	assert.Equal(t, 8.0, first.HoursCharged)
	assert.Equal(t, 1, first.TieBreakRank)
	assert.Nil(t, first.DecidedAt)

	// Alice now carries 10 charged hours; Charlie's 2h beats Bob's 4h.
	second, err := coord.AssignNext(ctx, testPeriod, 8, false)
	require.NoError(t, err)
	assert.Equal(t, idCharlie, second.EmployeeID)

	third, err := coord.AssignNext(ctx, testPeriod, 8, false)
	require.NoError(t, err)
	assert.Equal(t, idBob, third.EmployeeID)

	// Everyone is assigned; the top candidate re-check must now conflict.
	_, err = coord.AssignNext(ctx, testPeriod, 8, false)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Len(t, store.assignmentsForPeriod(testPeriod), 3)
}

func TestAssignNextRefusalChargesDefaultHours(t *testing.T) {
	store := newFakeStore()
	store.refusalHours = 8
	coord, calc := newTestCoordinator(t, store, Options{})
	seedScenario(t, store, calc)

	created, err := coord.AssignNext(context.Background(), testPeriod, 4, true)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefused, created.Status)
	assert.Equal(t, 8.0, created.HoursCharged, "refusal charges the configured default, not the requested hours")
}

func TestAssignNextValidation(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store, Options{})
	ctx := context.Background()

	for _, tc := range []struct {
		name   string
		period string
		hours  float64
	}{
		{"malformed period", "2024-1", 8},
		{"week out of range", "2024-W53", 8},
		{"negative hours", testPeriod, -1},
		{"hours above bound", testPeriod, 24.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := coord.AssignNext(ctx, tc.period, tc.hours, false)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
	assert.Zero(t, atomic.LoadInt32(&store.summaryCalls))
}

func TestAssignNextNoCandidate(t *testing.T) {
	store := newFakeStore()
	store.addEmployee(idAlice, "Alice", false) // inactive employees are never eligible
	coord, _ := newTestCoordinator(t, store, Options{})

	_, err := coord.AssignNext(context.Background(), testPeriod, 8, false)
	require.Error(t, err)
	assert.Equal(t, KindNoCandidate, KindOf(err))
}

func TestAssignNextConcurrentSingleCandidate(t *testing.T) {
	store := newFakeStore()
	coord, calc := newTestCoordinator(t, store, Options{})
	store.addEmployee(idAlice, "Alice", true)
	store.addEntry(idAlice, 2, time.Date(2024, time.January, 2, 9, 0, 0, 0, calc.Location()))

	var committed, conflicted int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coord.AssignNext(context.Background(), testPeriod, 8, false)
			if err == nil {
				atomic.AddInt32(&committed, 1)
				return
			}
			switch KindOf(err) {
			case KindConflict, KindNoCandidate:
				atomic.AddInt32(&conflicted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), committed)
	assert.Equal(t, int32(1), conflicted)
	assert.Len(t, store.assignmentsForPeriod(testPeriod), 1)
}

func TestAssignNextAtMostOncePerEmployee(t *testing.T) {
	store := newFakeStore()
	coord, calc := newTestCoordinator(t, store, Options{})
	seedScenario(t, store, calc)

	const requests = 8
	var committed int32
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := coord.AssignNext(context.Background(), testPeriod, 8, false); err == nil {
				atomic.AddInt32(&committed, 1)
			}
		}()
	}
	wg.Wait()

	created := store.assignmentsForPeriod(testPeriod)
	assert.Equal(t, int32(len(created)), committed)
	assert.LessOrEqual(t, len(created), 3, "never more assignments than eligible employees")
	seen := map[uuid.UUID]bool{}
	for _, a := range created {
		assert.False(t, seen[a.EmployeeID], "duplicate assignment for employee %s", a.EmployeeID)
		seen[a.EmployeeID] = true
	}
}

func TestAssignNextLockTimeout(t *testing.T) {
	store := newFakeStore()
	store.transactDelay = 500 * time.Millisecond
	coord, calc := newTestCoordinator(t, store, Options{LockWait: 50 * time.Millisecond})
	seedScenario(t, store, calc)

	var unavailable int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := coord.AssignNext(context.Background(), testPeriod, 8, false); err != nil && KindOf(err) == KindUnavailable {
				atomic.AddInt32(&unavailable, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), unavailable, "the waiter must time out as unavailable, not block")
	assert.Len(t, store.assignmentsForPeriod(testPeriod), 1)
}

func TestAssignNextRetriesTransientContention(t *testing.T) {
	store := newFakeStore()
	store.transientFails = 2
	coord, calc := newTestCoordinator(t, store, Options{
		MaxAttempts: 3,
		RetryBase:   time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	})
	seedScenario(t, store, calc)

	created, err := coord.AssignNext(context.Background(), testPeriod, 8, false)
	require.NoError(t, err)
	assert.Equal(t, idAlice, created.EmployeeID)
}

func TestAssignNextTransientExhaustionIsUnavailable(t *testing.T) {
	store := newFakeStore()
	store.transientFails = 5
	coord, calc := newTestCoordinator(t, store, Options{
		MaxAttempts: 3,
		RetryBase:   time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	})
	seedScenario(t, store, calc)

	_, err := coord.AssignNext(context.Background(), testPeriod, 8, false)
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Empty(t, store.assignmentsForPeriod(testPeriod))
}

func TestClassify(t *testing.T) {
	store := newFakeStore()
	coord, _ := newTestCoordinator(t, store, Options{})

	assert.Equal(t, KindConflict, KindOf(coord.classify(testPeriod, &pgconn.PgError{Code: pgUniqueViolation})))
	assert.Equal(t, KindUnavailable, KindOf(coord.classify(testPeriod, &pgconn.PgError{Code: pgDeadlockDetected})))
	assert.Equal(t, KindInternal, KindOf(coord.classify(testPeriod, assert.AnError)))
	f := failf(KindNoCandidate, nil, "empty")
	assert.Equal(t, KindNoCandidate, KindOf(coord.classify(testPeriod, f)))
}

func TestLockKeyDistinguishesPermutations(t *testing.T) {
	// A character-sum key would collide for these; the hash must not.
	assert.NotEqual(t, lockKey("2024-W12"), lockKey("2024-W21"))
	assert.Equal(t, lockKey("2024-W12"), lockKey("2024-W12"))
}
