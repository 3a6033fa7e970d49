package binder

import (
	"errors"
	"fmt"

	"github.com/willfong/claimsql/internal/templates"
)

// Error kinds returned by Bind and Parse
var (
	ErrMissingParameter = errors.New("missing parameter")
	ErrTypeMismatch     = errors.New("type mismatch")
)

// MissingParameterError reports a required parameter that was not supplied
type MissingParameterError struct {
	Template string
	Name     string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("template %q: missing required parameter %q", e.Template, e.Name)
}

// Is lets errors.Is(err, ErrMissingParameter) match
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// TypeMismatchError reports a value that does not fit the declared type
type TypeMismatchError struct {
	Template string
	Name     string
	Want     templates.ParamType

	// Got is the Go type of the rejected value, or the parse failure for
	// textual input
	Got string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("template %q: parameter %q wants %s, got %s", e.Template, e.Name, e.Want, e.Got)
}

// Is lets errors.Is(err, ErrTypeMismatch) match
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
