// Package schema embeds the DDL for the clients, cars and claims tables and
// a small seed data set, and applies them to a database.
package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed sql/tables.sql
var tablesSQL string

//go:embed sql/seed.sql
var seedSQL string

// Parts of the schema that can be printed or applied
const (
	PartTables = "tables"
	PartSeed   = "seed"
	PartFull   = "full"
)

// Parts lists the accepted part names
var Parts = []string{PartFull, PartTables, PartSeed}

// Tables returns the CREATE TABLE statements
func Tables() string { return tablesSQL }

// Seed returns the INSERT statements for the demo data set
func Seed() string { return seedSQL }

// SQL returns the script for a part: tables, seed, or full (both)
func SQL(part string) (string, error) {
	switch part {
	case PartTables:
		return tablesSQL, nil
	case PartSeed:
		return seedSQL, nil
	case PartFull, "":
		return tablesSQL + "\n" + seedSQL, nil
	default:
		return "", fmt.Errorf("unknown schema part %q (valid: %s)", part, strings.Join(Parts, ", "))
	}
}

// Statements splits a script into statements. Statements end with a line
// ending in ";" and full-line "--" comments are dropped.
func Statements(script string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			statements = append(statements, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if rest := strings.TrimSpace(current.String()); rest != "" {
		statements = append(statements, rest)
	}

	return statements
}

// Apply executes a script one statement at a time and returns how many
// statements ran. It stops at the first failure.
func Apply(ctx context.Context, db *sql.DB, script string) (int, error) {
	stmts := Statements(script)
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return i, fmt.Errorf("statement %d of %d failed: %w", i+1, len(stmts), err)
		}
	}
	return len(stmts), nil
}
