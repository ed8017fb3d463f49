package suggestion

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every input error returned before any I/O.
var ErrValidation = errors.New("suggestion: invalid input")

// ErrStoreUnavailable is matched when the document store could not complete
// a read or write. A failed Submit must not be assumed persisted; a failed
// FetchPage can be retried with the same cursor.
var ErrStoreUnavailable = errors.New("suggestion: store unavailable")

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("suggestion: %s %s", e.Field, e.Reason)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
