package variants

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateEntry      = errors.New("variants: duplicate entry")
	ErrNameRequired        = errors.New("variants: entry name is required")
	ErrTypeRequired        = errors.New("variants: custom entry type is required")
	ErrReservedType        = errors.New("variants: custom type is reserved")
	ErrEntryNotFound       = errors.New("variants: entry not found")
	ErrUnknownAxis         = errors.New("variants: unknown axis")
	ErrTooManyCombinations = errors.New("variants: too many combinations")
)

// ValidationError is a local input error. It never reaches the network.
type ValidationError struct {
	Axis  AxisKind
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Axis != "" && e.Value != "":
		return fmt.Sprintf("%s: axis=%s field=%s value=%q", e.Err, e.Axis, e.Field, e.Value)
	case e.Axis != "":
		return fmt.Sprintf("%s: axis=%s field=%s", e.Err, e.Axis, e.Field)
	case e.Value != "":
		return fmt.Sprintf("%s: field=%s value=%q", e.Err, e.Field, e.Value)
	default:
		return e.Err.Error()
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func validationErr(axis AxisKind, field, value string, err error) error {
	return &ValidationError{Axis: axis, Field: field, Value: value, Err: err}
}
