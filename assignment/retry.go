package assignment

import (
	"errors"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the coordinator is allowed to interpret.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isTransient reports whether err is storage-level contention worth a
// bounded retry. Everything else propagates immediately.
func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// retryBackoff returns the wait before retry number attempt (1-based):
// base * 2^(attempt-1), capped.
func retryBackoff(attempt int, base, maxBackoff time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// lockKey maps a period identifier to a stable 64-bit advisory lock key.
// Hashing the whole string avoids the collisions a character-sum key would
// allow between distinct periods.
func lockKey(period string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("assignment:" + period))
	return int64(h.Sum64())
}
