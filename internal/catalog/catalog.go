// Package catalog is the entry point for callers: it looks templates up,
// binds parameters and runs the result against the data source.
package catalog

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/willfong/claimsql/internal/binder"
	"github.com/willfong/claimsql/internal/database"
	"github.com/willfong/claimsql/internal/templates"
)

// ErrNoExecutor is returned by Run on a catalog built without an executor
var ErrNoExecutor = errors.New("catalog has no executor")

// Executor runs bound statements; *database.Pool implements it
type Executor interface {
	Execute(ctx context.Context, stmt binder.BoundStatement) (*database.ResultSet, error)
}

// Catalog composes the template store, binder and executor
type Catalog struct {
	store  *templates.Store
	binder *binder.Binder
	exec   Executor
	logger *slog.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the logger used for per-run debug output
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = l
	}
}

// New creates a catalog. exec may be nil for catalogs that only list,
// describe and render templates.
func New(store *templates.Store, b *binder.Binder, exec Executor, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		binder: b,
		exec:   exec,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run looks up templateID, binds ps and executes the statement.
// The first error is returned as is, so callers can tell
// templates.ErrNotFound, binder.ErrMissingParameter, binder.ErrTypeMismatch,
// database.ErrConnection and database.ErrExecution apart with errors.Is.
func (c *Catalog) Run(ctx context.Context, templateID string, ps binder.ParameterSet) (*database.ResultSet, error) {
	if c.exec == nil {
		return nil, ErrNoExecutor
	}
	log := c.logger.With("run_id", uuid.NewString(), "template", templateID)

	stmt, err := c.Render(templateID, ps)
	if err != nil {
		log.Debug("bind failed", "error", err)
		return nil, err
	}

	log.Debug("executing", "sql", stmt.SQL, "args", len(stmt.Args))
	rs, err := c.exec.Execute(ctx, stmt)
	if err != nil {
		log.Debug("execution failed", "error", err)
		return nil, err
	}

	log.Debug("completed", "rows", rs.Len(), "duration", rs.Duration)
	return rs, nil
}

// Render looks up templateID and binds ps without executing anything
func (c *Catalog) Render(templateID string, ps binder.ParameterSet) (binder.BoundStatement, error) {
	t, err := c.store.Get(templateID)
	if err != nil {
		return binder.BoundStatement{}, err
	}
	return c.binder.Bind(t, ps)
}

// Describe returns the template with the given id
func (c *Catalog) Describe(templateID string) (templates.Template, error) {
	return c.store.Get(templateID)
}

// Templates yields the templates of a category, or all of them when
// category is empty, in catalog order
func (c *Catalog) Templates(category string) iter.Seq[templates.Template] {
	return c.store.List(category)
}

// CategorySummary describes a category present in the catalog
type CategorySummary struct {
	templates.CategoryInfo
	Templates int
}

// Categories returns the catalog's categories in order of first appearance
func (c *Catalog) Categories() []CategorySummary {
	names := c.store.Categories()
	out := make([]CategorySummary, 0, len(names))
	for _, name := range names {
		n := 0
		for range c.store.List(name) {
			n++
		}
		out = append(out, CategorySummary{CategoryInfo: templates.LookupCategory(name), Templates: n})
	}
	return out
}

// Outcome is the result of one template within RunCategory
type Outcome struct {
	TemplateID string
	Result     *database.ResultSet
	Err        error
}

// RunCategory runs every template in category with the same parameter set,
// at most limit at a time. Outcomes are returned in catalog order; a failing
// template does not stop the others.
func (c *Catalog) RunCategory(ctx context.Context, category string, ps binder.ParameterSet, limit int) []Outcome {
	var ids []string
	for t := range c.store.List(category) {
		ids = append(ids, t.ID)
	}

	outcomes := make([]Outcome, len(ids))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, id := range ids {
		g.Go(func() error {
			rs, err := c.Run(ctx, id, ps)
			outcomes[i] = Outcome{TemplateID: id, Result: rs, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
