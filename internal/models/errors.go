package models

import "errors"

// Sentinel errors for validation.
var (
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrMissingActor      = errors.New("actor id is required")
	ErrMissingSnapshots  = errors.New("at least one of before/after is required")
)

// Sentinel errors for entity lookups.
var (
	// ErrActorNotFound means the acting principal could not be resolved.
	// Recording fails closed on it: no record is written.
	ErrActorNotFound = errors.New("actor not found")

	// ErrEntityNotFound means the target entity no longer exists. Callers
	// treat it as "no snapshot", distinct from an empty snapshot.
	ErrEntityNotFound = errors.New("entity not found")

	ErrRecordNotFound = errors.New("change record not found")
)
