// Package database is the executor side of claimsql: it owns the connection
// pool to the external data source and runs bound statements against it.
//
// FILE: pool.go
// PURPOSE: Pool struct, driver setup and lifecycle.
//
// RELATED FILES:
// - executor.go: Execute, the single entry point used by the catalog
// - resultset.go: ResultSet and row scanning
// - errors.go: ConnectionError / ExecutionError classification
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/willfong/claimsql/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// ensureParseTime adds parseTime=true to MySQL DSN if not already present.
// This is required for scanning DATE/DATETIME columns into time.Time values.
func ensureParseTime(dsn string) string {
	// Check if parseTime is already specified (case-insensitive)
	lower := strings.ToLower(dsn)
	if strings.Contains(lower, "parsetime=") {
		return dsn
	}

	// Add parseTime=true to the query string
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

// Pool wraps a sql.DB with query metrics and lifecycle management
type Pool struct {
	db     *sql.DB
	config config.DatabaseConfig

	// Metrics
	totalQueries   atomic.Int64
	failedQueries  atomic.Int64
	totalLatencyNs atomic.Int64
}

// NewPool creates a new database connection pool with the given configuration.
// No connection is made until Connect or the first Execute.
func NewPool(cfg config.DatabaseConfig) (*Pool, error) {
	if err := cfg.ValidateConnection(); err != nil {
		return nil, err
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DBDriver
	}
	cfg.Driver = driver

	// Ensure parseTime=true for MySQL to properly scan DATE/DATETIME columns.
	// An empty duckdb DSN opens an in-memory database.
	dsn := cfg.DSN
	if driver == "mysql" {
		dsn = ensureParseTime(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return newPool(db, cfg), nil
}

// NewPoolFromDB wraps an already opened sql.DB. cfg.Driver must name the
// driver behind db; the pool settings in cfg are applied to db.
func NewPoolFromDB(db *sql.DB, cfg config.DatabaseConfig) *Pool {
	return newPool(db, cfg)
}

func newPool(db *sql.DB, cfg config.DatabaseConfig) *Pool {
	// Apply pool configuration
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	return &Pool{
		db:     db,
		config: cfg,
	}
}

// Connect verifies the database connection is working
func (p *Pool) Connect(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return &ConnectionError{Driver: p.config.Driver, Err: err}
	}
	return nil
}

// Close gracefully shuts down the connection pool
func (p *Pool) Close() error {
	return p.db.Close()
}

// DB returns the underlying sql.DB for direct access when needed
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Driver returns the database/sql driver name in use
func (p *Pool) Driver() string {
	return p.config.Driver
}

// recordQuery updates internal metrics
func (p *Pool) recordQuery(duration time.Duration, err error) {
	p.totalQueries.Add(1)
	p.totalLatencyNs.Add(duration.Nanoseconds())
	if err != nil {
		p.failedQueries.Add(1)
	}
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	dbStats := p.db.Stats()
	return PoolStats{
		OpenConnections:   dbStats.OpenConnections,
		InUse:             dbStats.InUse,
		Idle:              dbStats.Idle,
		WaitCount:         dbStats.WaitCount,
		WaitDuration:      dbStats.WaitDuration,
		MaxIdleClosed:     dbStats.MaxIdleClosed,
		MaxLifetimeClosed: dbStats.MaxLifetimeClosed,
		TotalQueries:      p.totalQueries.Load(),
		FailedQueries:     p.failedQueries.Load(),
		AvgLatency:        p.averageLatency(),
	}
}

func (p *Pool) averageLatency() time.Duration {
	total := p.totalQueries.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(p.totalLatencyNs.Load() / total)
}

// PoolStats contains connection pool and query statistics
type PoolStats struct {
	// Connection pool stats
	OpenConnections   int
	InUse             int
	Idle              int
	WaitCount         int64
	WaitDuration      time.Duration
	MaxIdleClosed     int64
	MaxLifetimeClosed int64

	// Query stats
	TotalQueries  int64
	FailedQueries int64
	AvgLatency    time.Duration
}
