// Package apperr holds the error taxonomy shared by the settlement packages.
// Callers wrap these with fmt.Errorf("%w: ...") and match with errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidInput is returned for malformed amounts, rates or bookings.
	// Nothing is persisted when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidAmount is returned when a money value cannot be represented,
	// e.g. a non-finite float or a negative amount where one is not allowed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTransition is returned when a ledger status change is not an
	// allowed edge of the state machine.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPersistenceConflict is returned when a conditional update observed a
	// different status or version than expected.
	ErrPersistenceConflict = errors.New("persistence conflict")

	// ErrExternalService is returned for failures of export rendering,
	// messaging or cache side effects.
	ErrExternalService = errors.New("external service error")

	// ErrMisconfigured is returned when stored or configured rates cannot be
	// applied. It is a server fault, never a client one.
	ErrMisconfigured = errors.New("misconfigured")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// IsClientError reports whether err should be surfaced to the caller as a
// bad request rather than a server failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidAmount)
}
