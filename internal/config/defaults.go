// Package config contains configuration and compile-time defaults for claimsql.
package config

import "time"

// =============================================================================
// DATABASE DEFAULTS
// =============================================================================

const (
	// DBDriver is the database driver to use
	DBDriver = "mysql"

	// DBMaxOpenConns is maximum open connections in the pool
	DBMaxOpenConns = 10

	// DBMaxIdleConns is maximum idle connections in the pool
	DBMaxIdleConns = 2

	// DBConnMaxLifetime is how long a connection can be reused
	DBConnMaxLifetime = 5 * time.Minute

	// DBConnMaxIdleTime is how long an idle connection is kept
	DBConnMaxIdleTime = 1 * time.Minute
)

// SupportedDrivers are the database/sql driver names claimsql registers
var SupportedDrivers = []string{"mysql", "postgres", "pgx", "sqlite", "duckdb"}

// =============================================================================
// CATALOG DEFAULTS
// =============================================================================

const (
	// TemplateCacheSize is how many compiled templates the binder keeps
	TemplateCacheSize = 256
)

// =============================================================================
// RUN DEFAULTS
// =============================================================================

const (
	// RunTimeout bounds a single template run (0 = no deadline)
	RunTimeout = 0 * time.Second

	// OutputFormat is the default result format
	OutputFormat = "table"

	// ReportParallelism is how many templates a category report runs at once
	ReportParallelism = 4
)

// OutputFormats are the accepted values for run.format
var OutputFormats = []string{"table", "json", "csv", "md"}

// =============================================================================
// ENVIRONMENT
// =============================================================================

const (
	// EnvPrefix prefixes environment overrides, e.g. CLAIMSQL_DATABASE_DSN
	EnvPrefix = "CLAIMSQL"

	// ConfigName is the config file looked up when --config is not given
	ConfigName = "claimsql"
)
