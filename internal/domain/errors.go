package domain

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the ledger engine. Every error returned by the
// engine or the store wraps exactly one of these sentinels, so callers branch
// with errors.Is instead of matching message strings.
var (
	// ErrUnauthorized indicates the caller has no resolvable identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates a user, account, or transaction is absent or not
	// owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the input failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates the unit of work could not commit due to a
	// concurrent modification. This is the only kind eligible for retry.
	ErrConflict = errors.New("conflict")
	// ErrExternalService indicates a failure in an external collaborator,
	// such as the field extraction model returning malformed output.
	ErrExternalService = errors.New("external service failure")
)

// Errorf builds an error carrying the given kind with a formatted,
// human-readable message.
func Errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}
