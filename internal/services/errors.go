package services

import (
	"errors"
	"fmt"
)

// ErrSubmissionInFlight is returned when a submission for the same user and
// audio file is already being processed.
var ErrSubmissionInFlight = errors.New("a submission for this file is already in progress")

// ValidationError is a tier, model, or stem gate failure. It is recoverable
// and causes no state change.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// InsufficientCreditsError carries what the request needed versus what the
// balance held, whether detected at validation or at commit. No state change.
type InsufficientCreditsError struct {
	Required  float64
	Available float64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %.4f, available %.4f", e.Required, e.Available)
}

// LedgerError is a failed atomic balance mutation. The caller may retry the
// whole operation, but must never retry just the deduction: the original
// attempt left no partial effect, so a blind second deduction would double
// charge.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// ExternalServiceError is a separation-service failure. The job is marked
// failed; deducted credits are not refunded.
type ExternalServiceError struct {
	Provider string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
