package assignment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"rotation/metrics"
	"rotation/models"
	"rotation/period"
	"rotation/selection"
)

const (
	defaultLockWait    = 5 * time.Second
	defaultMaxAttempts = 3
	defaultRetryBase   = 50 * time.Millisecond
	defaultMaxBackoff  = time.Second
)

// Options tune the coordinator's contention handling. Zero values take
// defaults.
type Options struct {
	// LockWait bounds how long a request may wait for the in-process period
	// lock before failing as unavailable.
	LockWait time.Duration
	// MaxAttempts bounds retries of transient storage contention. The period
	// lock keeps most contention away from storage; retries are
	// defense-in-depth, not the primary correctness mechanism.
	MaxAttempts int
	RetryBase   time.Duration
	MaxBackoff  time.Duration
}

// Coordinator turns "who is next" into a committed, non-duplicated
// assignment row. Per period, decisions are strictly serialized: an
// in-process lock bounds the wait, a storage advisory lock serializes across
// processes, and the unique constraint on (employee_id, period_week) is the
// final backstop.
type Coordinator struct {
	store Store
	calc  *period.Calculator
	locks *periodLocks
	log   *logrus.Entry
	opts  Options
}

func NewCoordinator(store Store, calc *period.Calculator, logger *logrus.Logger, opts Options) *Coordinator {
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = defaultRetryBase
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	return &Coordinator{
		store: store,
		calc:  calc,
		locks: newPeriodLocks(),
		log:   logger.WithField("component", "assignment"),
		opts:  opts,
	}
}

// WhoIsNext returns the ranked candidate list for the period. Read-only and
// not serialized against in-flight decisions; it may observe a pre- or
// post-commit state.
func (c *Coordinator) WhoIsNext(ctx context.Context, periodWeek string) ([]models.Candidate, error) {
	start, end, err := c.validatePeriod(periodWeek)
	if err != nil {
		return nil, err
	}
	summaries, err := c.store.Summaries(ctx, periodWeek, start, end)
	if err != nil {
		return nil, failf(KindInternal, err, "load summaries for period %s", periodWeek)
	}
	return selection.Rank(summaries), nil
}

// Summary returns per-employee totals and last-assigned timestamps for the
// period.
func (c *Coordinator) Summary(ctx context.Context, periodWeek string) ([]models.EmployeeSummary, error) {
	start, end, err := c.validatePeriod(periodWeek)
	if err != nil {
		return nil, err
	}
	summaries, err := c.store.Summaries(ctx, periodWeek, start, end)
	if err != nil {
		return nil, failf(KindInternal, err, "load summaries for period %s", periodWeek)
	}
	return summaries, nil
}

// AssignNext selects the top-ranked candidate for the period and commits an
// assignment row for them. When refused is set the row is charged the
// configured default refusal hours instead of the requested hours.
func (c *Coordinator) AssignNext(ctx context.Context, periodWeek string, hours float64, refused bool) (*models.Assignment, error) {
	created, err := c.assignNext(ctx, periodWeek, hours, refused)
	if err != nil {
		metrics.ObserveAssignment(KindOf(err).String())
		return nil, err
	}
	metrics.ObserveAssignment("committed")
	return created, nil
}

func (c *Coordinator) assignNext(ctx context.Context, periodWeek string, hours float64, refused bool) (*models.Assignment, error) {
	start, end, err := c.validatePeriod(periodWeek)
	if err != nil {
		return nil, err
	}
	if hours < 0 || hours > 24 {
		return nil, failf(KindValidation, nil, "hours must be between 0 and 24, got %v", hours)
	}

	lockCtx, cancel := context.WithTimeout(ctx, c.opts.LockWait)
	defer cancel()
	release, err := c.locks.acquire(lockCtx, periodWeek)
	if err != nil {
		return nil, failf(KindUnavailable, err, "period %s is busy", periodWeek)
	}
	defer release()

	var created *models.Assignment
	for attempt := 1; ; attempt++ {
		created, err = c.tryAssign(ctx, periodWeek, start, end, hours, refused)
		if err == nil {
			break
		}
		if !isTransient(err) || attempt >= c.opts.MaxAttempts {
			break
		}
		wait := retryBackoff(attempt, c.opts.RetryBase, c.opts.MaxBackoff)
		c.log.WithFields(logrus.Fields{
			"period":  periodWeek,
			"attempt": attempt,
			"wait":    wait.String(),
		}).WithError(err).Warn("transient storage contention, retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, failf(KindUnavailable, ctx.Err(), "assignment for period %s interrupted", periodWeek)
		}
	}
	if err != nil {
		return nil, c.classify(periodWeek, err)
	}

	c.log.WithFields(logrus.Fields{
		"period":      periodWeek,
		"employee_id": created.EmployeeID,
		"status":      created.Status,
		"hours":       created.HoursCharged,
	}).Info("assignment committed")
	return created, nil
}

// tryAssign runs one LOCKED → RANKED → CHECKED → COMMITTED pass in a single
// transaction.
func (c *Coordinator) tryAssign(ctx context.Context, periodWeek string, start, end time.Time, hours float64, refused bool) (*models.Assignment, error) {
	var created *models.Assignment
	err := c.store.Transact(ctx, func(tx Tx) error {
		if err := tx.LockPeriod(ctx, lockKey(periodWeek)); err != nil {
			return err
		}
		summaries, err := tx.Summaries(ctx, periodWeek, start, end)
		if err != nil {
			return err
		}
		top, ok := selection.Next(summaries)
		if !ok {
			return failf(KindNoCandidate, nil, "no eligible candidate for period %s", periodWeek)
		}
		// The lock only serializes this coordinator; re-check inside the
		// transaction before writing.
		exists, err := tx.HasAssignment(ctx, top.EmployeeID, periodWeek)
		if err != nil {
			return err
		}
		if exists {
			return failf(KindConflict, nil, "employee %s already assigned for period %s", top.EmployeeID, periodWeek)
		}

		charged := hours
		status := models.StatusAssigned
		if refused {
			status = models.StatusRefused
			charged, err = tx.DefaultRefusalHours(ctx)
			if err != nil {
				return err
			}
		}
		a := &models.Assignment{
			EmployeeID:   top.EmployeeID,
			PeriodWeek:   periodWeek,
			HoursCharged: charged,
			Status:       status,
			TieBreakRank: top.TieBreakRank,
		}
		if err := tx.CreateAssignment(ctx, a); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (c *Coordinator) validatePeriod(periodWeek string) (start, end time.Time, err error) {
	start, end, err = c.calc.Boundaries(periodWeek)
	if err != nil {
		return time.Time{}, time.Time{}, failf(KindValidation, err, "invalid period %q", periodWeek)
	}
	return start, end, nil
}

// classify translates whatever escaped the retry loop into the outcome
// taxonomy.
func (c *Coordinator) classify(periodWeek string, err error) error {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	switch {
	case isUniqueViolation(err):
		return failf(KindConflict, err, "employee already assigned for period %s", periodWeek)
	case isTransient(err):
		return failf(KindUnavailable, err, "storage contention for period %s persisted", periodWeek)
	default:
		return failf(KindInternal, err, "assignment for period %s failed", periodWeek)
	}
}
