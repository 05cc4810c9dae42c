package errors

import (
	"github.com/google/uuid"
)

// ValidateRunID validates a run identifier supplied by a caller (CLI flag or
// API path segment) before it reaches a history store.
//
// Run IDs are UUIDs generated at run creation; anything else is rejected so
// malformed input never turns into a store query.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRunID, "run id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidRunID, err, "run id %q is not a valid UUID", id)
	}
	return nil
}
