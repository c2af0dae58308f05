package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the write engine and facades. Callers branch with
// errors.Is; the structured types below carry context and unwrap to these.
var (
	// ErrNotFound is returned when the target row does not exist at
	// mutation time.
	ErrNotFound = errors.New("not found in store")

	// ErrEmptyPatch is returned when a patch contains no effective field
	// changes, either as submitted or after no-op elision.
	ErrEmptyPatch = errors.New("no fields to update")

	// ErrValidation is returned when input fields fail an entity's schema
	// before the engine is reached.
	ErrValidation = errors.New("validation failed")
)

// NotFoundError identifies the entity instance a mutation failed to find.
type NotFoundError struct {
	Entity   EntityType
	EntityID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find %s with id (%s)", e.Entity, e.EntityID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ValidationError reports a single field that failed schema validation.
type ValidationError struct {
	Entity EntityType
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s.%s: %s", e.Entity, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsNotFound reports whether err indicates a missing entity row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err is caused by invalid caller input and
// should map to a bad-request response rather than a server failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyPatch) || errors.Is(err, ErrValidation)
}
