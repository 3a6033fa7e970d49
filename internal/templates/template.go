// Package templates holds the catalog of parameterized claim queries.
//
// A Store is built once from a YAML catalog (the embedded default or a file
// on disk) and is read-only afterwards, so it can be shared by any number of
// goroutines.
package templates

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ParamType is the semantic type of a template parameter
type ParamType string

const (
	TypeString    ParamType = "string"
	TypeInteger   ParamType = "integer"
	TypeNumber    ParamType = "number"
	TypeBoolean   ParamType = "boolean"
	TypeDate      ParamType = "date"
	TypeTimestamp ParamType = "timestamp"
)

// DateLayout is the textual form accepted for date parameters
const DateLayout = "2006-01-02"

var paramTypes = []ParamType{TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeDate, TypeTimestamp}

// Valid reports whether t is one of the known semantic types
func (t ParamType) Valid() bool {
	return slices.Contains(paramTypes, t)
}

// Accepts reports whether v may be bound to a parameter of type t.
// Values are never converted: an integer parameter rejects "42" and a
// date parameter rejects a string.
func (t ParamType) Accepts(v any) bool {
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeInteger:
		return isInteger(v)
	case TypeNumber:
		return isInteger(v) || isFloat(v)
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeDate, TypeTimestamp:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}

// Parse converts textual input (command-line flags, catalog defaults) into
// a value accepted by t.
func (t ParamType) Parse(s string) (any, error) {
	switch t {
	case TypeString:
		return s, nil
	case TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return n, nil
	case TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", s)
		}
		return b, nil
	case TypeDate:
		d, err := time.Parse(DateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%q is not a date (want YYYY-MM-DD)", s)
		}
		return d, nil
	case TypeTimestamp:
		s = strings.TrimSpace(s)
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", DateLayout} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return nil, fmt.Errorf("%q is not a timestamp (want RFC 3339)", s)
	default:
		return nil, fmt.Errorf("unknown parameter type %q", string(t))
	}
}

func isInteger(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

// Parameter describes one named placeholder of a template
type Parameter struct {
	Name     string
	Type     ParamType
	Required bool

	// Default is bound when an optional parameter is not supplied.
	// nil means SQL NULL.
	Default any

	Description string
}

// Template is a named, parameterized SQL query pattern
type Template struct {
	ID          string
	Category    string
	Description string

	// SQL uses :name placeholders for every parameter
	SQL string

	// Parameters in declaration order
	Parameters []Parameter

	// Dialects the SQL is written for; empty means portable
	Dialects []string
}

// Param returns the declared parameter with the given name
func (t Template) Param(name string) (Parameter, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// RequiredParams returns the names of the required parameters
func (t Template) RequiredParams() []string {
	var names []string
	for _, p := range t.Parameters {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

func (t Template) clone() Template {
	t.Parameters = slices.Clone(t.Parameters)
	t.Dialects = slices.Clone(t.Dialects)
	return t
}
