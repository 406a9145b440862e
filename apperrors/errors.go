package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tender/contract/notification core. Services wrap
// these with context via fmt.Errorf and %w; controllers translate them to
// HTTP status codes with errors.Is.
var (
	// ErrNotFound means the entity id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOperation means a precondition for a transition is not met
	// (award without a matching bid, contract before standstill ends, ...).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrForbidden means the caller lacks role or ownership for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrStoreFailure means the underlying store call failed. The cause is
	// wrapped so it can be logged, but it is never surfaced raw to clients.
	ErrStoreFailure = errors.New("store failure")
)

func NotFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidOperation)...)
}

func Forbidden(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}

func Store(op string, cause error) error {
	return fmt.Errorf("%s: %v: %w", op, cause, ErrStoreFailure)
}
