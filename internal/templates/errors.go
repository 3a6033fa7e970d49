package templates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by errors for unknown template ids
var ErrNotFound = errors.New("template not found")

// NotFoundError reports a lookup of an unknown template id
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError collects every problem found while loading a catalog
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid catalog %s:\n  - %s", e.Source, strings.Join(e.Problems, "\n  - "))
}

func (e *ValidationError) addf(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}
