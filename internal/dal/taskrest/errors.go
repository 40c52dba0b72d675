package taskrest

import (
	"errors"
	"fmt"
)

// Sentinel errors for outcomes the sync engine treats as idempotent.
var (
	// ErrDuplicate means a task with the same external id already exists.
	ErrDuplicate = errors.New("task already exists")
	// ErrNotFound means no task matches the given id.
	ErrNotFound = errors.New("task not found")
)

// ValidationError is a structural rejection by the task service. Permanent
// rejections (e.g. an unknown domain) must not be retried; everything else
// stays on the retry path.
type ValidationError struct {
	Code      string
	Message   string
	Permanent bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task service rejected request: %s (%s)", e.Message, e.Code)
}

// IsPermanent reports whether err is a validation error classified as
// permanent.
func IsPermanent(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr) && vErr.Permanent
}
