package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/willfong/claimsql/internal/schema"

	// sqlite driver for fixture databases
	_ "modernc.org/sqlite"
)

// NewClaimsDB creates a SQLite database in t.TempDir with the claims
// tables and the seed data set, and returns its path.
func NewClaimsDB(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "claims.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	full, err := schema.SQL(schema.PartFull)
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := schema.Apply(context.Background(), db, full); err != nil {
		t.Fatalf("failed to create fixture database: %v", err)
	}
	return path
}
