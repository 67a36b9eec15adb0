package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// PersistenceError reports that the external store rejected a write.
// It never rolls back in-memory state; callers log it and notify the user.
type PersistenceError struct {
	Op     string
	UserID string
	Err    error
}

func NewPersistenceError(op, userID string, err error) error {
	return &PersistenceError{Op: op, UserID: userID, Err: err}
}

func (err *PersistenceError) Error() string {
	return fmt.Sprintf("%s for user %q: %v", err.Op, err.UserID, err.Err)
}

func (err *PersistenceError) Unwrap() error { return err.Err }

// AsPersistenceError returns the first *PersistenceError found in err's chain.
func AsPersistenceError(err error) (*PersistenceError, bool) {
	var pErr *PersistenceError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}
