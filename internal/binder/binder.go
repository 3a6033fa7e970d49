// Package binder pairs caller-supplied values with a template's placeholders.
//
// Values never enter the SQL text. Bind rewrites each :name placeholder into
// the driver's positional marker and returns the values separately, so the
// statement text for a template is the same whatever values are supplied.
package binder

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/willfong/claimsql/internal/templates"
)

// ParameterSet maps parameter names to values for one invocation
type ParameterSet map[string]any

// BoundStatement is a statement ready for execution
type BoundStatement struct {
	TemplateID string

	// SQL with positional placeholders
	SQL string

	// Args[i] is the value for the i-th placeholder
	Args []any

	// Names[i] is the parameter bound at the i-th placeholder
	Names []string
}

// Style is a positional placeholder syntax
type Style int

const (
	// StyleQuestion renders every placeholder as ?
	StyleQuestion Style = iota

	// StyleDollar renders placeholders as $1, $2, ...
	StyleDollar
)

func (s Style) String() string {
	switch s {
	case StyleQuestion:
		return "question"
	case StyleDollar:
		return "dollar"
	default:
		return "Style(" + strconv.Itoa(int(s)) + ")"
	}
}

var driverStyles = map[string]Style{
	"mysql":    StyleQuestion,
	"sqlite":   StyleQuestion,
	"duckdb":   StyleQuestion,
	"postgres": StyleDollar,
	"pgx":      StyleDollar,
}

// StyleFor returns the placeholder style used by a database/sql driver
func StyleFor(driver string) (Style, error) {
	s, ok := driverStyles[driver]
	if !ok {
		return 0, fmt.Errorf("no placeholder style for driver %q", driver)
	}
	return s, nil
}

// DefaultCacheSize is the number of compiled templates kept by a Binder
const DefaultCacheSize = 256

type compiled struct {
	sql   string
	names []string
}

// Binder binds parameter sets to templates for one placeholder style.
// It is safe for concurrent use.
type Binder struct {
	style Style
	cache *lru.Cache[string, *compiled]
}

// Option configures a Binder
type Option func(*binderOptions)

type binderOptions struct {
	cacheSize int
}

// WithCacheSize sets how many compiled templates are kept
func WithCacheSize(n int) Option {
	return func(o *binderOptions) {
		o.cacheSize = n
	}
}

// New creates a Binder producing placeholders in the given style
func New(style Style, opts ...Option) *Binder {
	o := binderOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}

	cache, _ := lru.New[string, *compiled](o.cacheSize)
	return &Binder{style: style, cache: cache}
}

// Style returns the placeholder style of b
func (b *Binder) Style() Style {
	return b.style
}

// Bind validates ps against the template's parameters and returns the
// statement with its arguments in placeholder order.
//
// Parameters are checked in declaration order and the first problem is
// returned. A nil value counts as not supplied. Optional parameters that
// are not supplied take their default, or NULL without one. Names in ps
// that the template does not declare are ignored.
func (b *Binder) Bind(t templates.Template, ps ParameterSet) (BoundStatement, error) {
	values := make(map[string]any, len(t.Parameters))
	for _, p := range t.Parameters {
		v, ok := ps[p.Name]
		if !ok || v == nil {
			if p.Required {
				return BoundStatement{}, &MissingParameterError{Template: t.ID, Name: p.Name}
			}
			values[p.Name] = p.Default
			continue
		}
		if !p.Type.Accepts(v) {
			return BoundStatement{}, &TypeMismatchError{
				Template: t.ID,
				Name:     p.Name,
				Want:     p.Type,
				Got:      fmt.Sprintf("%T", v),
			}
		}
		values[p.Name] = v
	}

	c := b.compile(t)
	args := make([]any, len(c.names))
	for i, name := range c.names {
		v, declared := values[name]
		if !declared {
			// placeholder without a declaration; loaded catalogs reject these
			return BoundStatement{}, &MissingParameterError{Template: t.ID, Name: name}
		}
		args[i] = v
	}

	return BoundStatement{
		TemplateID: t.ID,
		SQL:        c.sql,
		Args:       args,
		Names:      slices.Clone(c.names),
	}, nil
}

func (b *Binder) compile(t templates.Template) *compiled {
	key := t.ID + "\x00" + t.SQL
	if c, ok := b.cache.Get(key); ok {
		return c
	}
	c := compileSQL(t.SQL, b.style)
	b.cache.Add(key, c)
	return c
}

func compileSQL(sql string, style Style) *compiled {
	phs := templates.ScanPlaceholders(sql)
	c := &compiled{names: make([]string, 0, len(phs))}

	var sb strings.Builder
	sb.Grow(len(sql))
	last := 0
	for i, ph := range phs {
		sb.WriteString(sql[last:ph.Start])
		if style == StyleDollar {
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(i + 1))
		} else {
			sb.WriteByte('?')
		}
		last = ph.End
		c.names = append(c.names, ph.Name)
	}
	sb.WriteString(sql[last:])

	c.sql = strings.TrimSpace(sb.String())
	return c
}

// Parse converts textual values, such as command-line input, into a
// ParameterSet using the template's declared types. Names the template
// does not declare are skipped.
func Parse(t templates.Template, raw map[string]string) (ParameterSet, error) {
	ps := make(ParameterSet, len(raw))
	for _, p := range t.Parameters {
		s, ok := raw[p.Name]
		if !ok {
			continue
		}
		v, err := p.Type.Parse(s)
		if err != nil {
			return nil, &TypeMismatchError{Template: t.ID, Name: p.Name, Want: p.Type, Got: err.Error()}
		}
		ps[p.Name] = v
	}
	return ps, nil
}

// Unknown returns the names in raw that t does not declare, sorted
func Unknown(t templates.Template, raw map[string]string) []string {
	var out []string
	for name := range raw {
		if _, ok := t.Param(name); !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
