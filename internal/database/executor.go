package database

import (
	"context"
	"time"

	"github.com/willfong/claimsql/internal/binder"
)

// Execute runs a bound statement and returns all of its rows.
//
// A connection is taken from the pool for the duration of the call and
// handed back on every path. Failures are reported as *ConnectionError when
// the data source cannot be reached and *ExecutionError when it rejects the
// statement. Nothing is retried.
func (p *Pool) Execute(ctx context.Context, stmt binder.BoundStatement) (*ResultSet, error) {
	start := time.Now()
	rs, err := p.execute(ctx, stmt)
	elapsed := time.Since(start)
	p.recordQuery(elapsed, err)
	if err != nil {
		return nil, err
	}
	rs.Duration = elapsed
	return rs, nil
}

func (p *Pool) execute(ctx context.Context, stmt binder.BoundStatement) (*ResultSet, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, classify(p.config.Driver, stmt.TemplateID, err)
		}
		return nil, &ConnectionError{Driver: p.config.Driver, Err: err}
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, classify(p.config.Driver, stmt.TemplateID, err)
	}
	defer rows.Close()

	rs, err := scanResultSet(rows)
	if err != nil {
		return nil, classify(p.config.Driver, stmt.TemplateID, err)
	}
	return rs, nil
}
