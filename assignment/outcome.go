package assignment

import (
	"errors"
	"fmt"
)

// FailureKind is the closed set of non-success outcomes an assignment
// request can produce. Callers branch on the kind; storage error codes never
// cross this boundary.
type FailureKind int

const (
	// KindInternal covers unexpected faults, including an insertion that
	// produced no row. It is the zero value so unclassified errors surface
	// as internal failures rather than masquerading as business outcomes.
	KindInternal FailureKind = iota
	// KindValidation rejects malformed input before any storage access.
	KindValidation
	// KindNoCandidate means the eligible set was empty. Terminal, not a fault.
	KindNoCandidate
	// KindConflict means an assignment already exists for the chosen
	// employee and period, detected logically or via unique constraint.
	KindConflict
	// KindUnavailable means lock acquisition timed out or transient storage
	// contention persisted past the retry budget. Safe to retry later.
	KindUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNoCandidate:
		return "no_candidate"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Failure is the tagged error type returned by the coordinator.
type Failure struct {
	Kind    FailureKind
	Message string
	cause   error
}

func (f *Failure) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.cause
}

func failf(kind FailureKind, cause error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf classifies any error into the outcome taxonomy. Errors that are not
// coordinator failures report as internal.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindInternal
}
