package scheduling

import (
	"fmt"
	"time"

	"vetbook/models"
)

// ValidationError marks structurally malformed input. Not recoverable;
// surfaced immediately, never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BookingConflictError means the requested slot is unavailable. It carries
// the conflicting appointments and alternative start times so the caller can
// offer a different slot; retrying is the user's decision.
type BookingConflictError struct {
	Message      string
	Conflicts    []models.Appointment
	Alternatives []time.Time
}

func (e *BookingConflictError) Error() string {
	return e.Message
}

// StorageError wraps a persistence-layer failure. Recoverable; the
// arbitrator retries with backoff before surfacing it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
