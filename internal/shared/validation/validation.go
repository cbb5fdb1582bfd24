// Package validation carries user-correctable input errors from usecases to the transport layer.
package validation

import (
	"errors"
	"fmt"
)

// Error is a business rule violation the user can fix.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// New returns an Error without a field.
func New(msg string) error {
	return &Error{Msg: msg}
}

// Field returns an Error attached to field.
func Field(field, msg string) error {
	return &Error{Field: field, Msg: msg}
}

// Is reports whether err is or wraps an Error.
func Is(err error) bool {
	var v *Error
	return errors.As(err, &v)
}
