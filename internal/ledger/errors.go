package ledger

import (
	"errors"
	"fmt"
)

// Typed failures surfaced to callers.
var (
	// ErrUserNotFound indicates the user has no ledger presence and none can be created.
	ErrUserNotFound = errors.New("ledger: user not found")
	// ErrInsufficientCredits indicates available credits cannot cover the requested amount.
	ErrInsufficientCredits = errors.New("ledger: insufficient credits")
	// ErrInvalidOperation indicates malformed request semantics.
	ErrInvalidOperation = errors.New("ledger: invalid operation")
	// ErrLedgerUnavailable indicates store contention or transient failure after retries.
	ErrLedgerUnavailable = errors.New("ledger: unavailable")
	// ErrInvariantViolation indicates computed state disagrees with expected arithmetic.
	// It always aborts the enclosing transaction.
	ErrInvariantViolation = errors.New("ledger: invariant violation")
)

// errVersionConflict marks an optimistic concurrency conflict; retried internally.
var errVersionConflict = errors.New("ledger: balance version conflict")

// InsufficientCreditsError carries the current available amount so the caller can react.
type InsufficientCreditsError struct {
	Available int64
	Requested int64
}

// Error implements the error interface.
func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("ledger: insufficient credits: available=%d requested=%d", e.Available, e.Requested)
}

// Unwrap lets errors.Is match ErrInsufficientCredits.
func (e *InsufficientCreditsError) Unwrap() error {
	return ErrInsufficientCredits
}
