package service

import "errors"

// Sentinel errors recovered at the handler boundary. Services wrap them with
// fmt.Errorf("%w") so callers can match with errors.Is while keeping detail.
var (
	// ErrValidation reports bad input before any side effect happened.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientStock reports a stock line with less quantity than the
	// sale requested. Any reservations made earlier in the same request are
	// rolled back.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidPayment reports a non-positive or otherwise unacceptable
	// payment amount.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrNoOpenDebt reports a payment against a party with nothing outstanding.
	ErrNoOpenDebt = errors.New("no open debt")

	// ErrReconciliationMismatch reports disagreement between incrementally
	// maintained party totals and the totals recomputed from the party's
	// documents. It signals a bug and is never silently repaired.
	ErrReconciliationMismatch = errors.New("reconciliation mismatch")

	// ErrStorageUnavailable reports a transient persistence failure after the
	// current attempt's compensations have run.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
