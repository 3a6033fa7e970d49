package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willfong/claimsql/internal/binder"
	"github.com/willfong/claimsql/internal/database"
	"github.com/willfong/claimsql/internal/templates"
	"github.com/willfong/claimsql/internal/testutil"
)

// execute runs a fresh command tree with isolated config lookup
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err = root.Execute()
	return out.String(), errOut.String(), err
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--driver", "sqlite", "--db", testutil.NewClaimsDB(t)}
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)

	store, err := templates.Default()
	require.NoError(t, err)
	for tmpl := range store.List("") {
		assert.Contains(t, out, tmpl.ID)
	}
	assert.Contains(t, out, "client_id*", "required parameters are marked")

	out, _, err = execute(t, "list", "--category", "fraud_detection")
	require.NoError(t, err)
	assert.Contains(t, out, "heavy_hitters")
	assert.NotContains(t, out, "avg_claim_by_car_type")

	out, _, err = execute(t, "list", "--category", "loss_ratios")
	require.NoError(t, err)
	assert.Contains(t, out, `no templates in category "loss_ratios"`)
}

func TestCategories(t *testing.T) {
	out, _, err := execute(t, "categories")
	require.NoError(t, err)

	for _, name := range []string{"aggregation", "fraud_detection", "window_functions", "reporting", "data_quality"} {
		assert.Contains(t, out, name)
	}
}

func TestShow(t *testing.T) {
	out, _, err := execute(t, "show", "heavy_hitters")
	require.NoError(t, err)

	assert.Contains(t, out, "=== heavy_hitters ===")
	assert.Contains(t, out, "fraud_detection")
	assert.Contains(t, out, "multiplier")
	assert.Contains(t, out, "number")
	assert.Contains(t, out, "AVG(claim_amt)")

	out, _, err = execute(t, "show", "top_claim_per_client_qualify")
	require.NoError(t, err)
	assert.Contains(t, out, "duckdb, snowflake, databricks")

	_, _, err = execute(t, "show", "nonexistent_id")
	assert.ErrorIs(t, err, templates.ErrNotFound)
}

func TestRender(t *testing.T) {
	out, _, err := execute(t, "render", "heavy_hitters", "--driver", "postgres", "--param", "multiplier=2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "$1")
	assert.Contains(t, out, "2.5")
	assert.NotContains(t, out, ":multiplier")

	out, _, err = execute(t, "render", "claims_in_period",
		"-p", "start_date=2024-01-01", "-p", "end_date=2024-03-31")
	require.NoError(t, err)
	assert.Contains(t, out, "BETWEEN ? AND ?")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "2024-03-31")

	_, stderr, err := execute(t, "render", "avg_claim_by_car_type", "--param", "bogus=1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "ignoring undeclared parameters: bogus")
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing required", []string{"render", "running_claim_total"}, binder.ErrMissingParameter},
		{"unparsable integer", []string{"render", "running_claim_total", "--param", "client_id=abc"}, binder.ErrTypeMismatch},
		{"bad date", []string{"render", "claims_in_period", "-p", "start_date=01/02/2024", "-p", "end_date=2024-03-31"}, binder.ErrTypeMismatch},
		{"unknown template", []string{"render", "nonexistent_id"}, templates.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, _, err := execute(t, "render", "heavy_hitters", "--param", "multiplier")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected name=value")
}

func TestRun(t *testing.T) {
	db := sqliteArgs(t)

	t.Run("csv", func(t *testing.T) {
		args := append([]string{"run", "avg_claim_by_car_type", "--format", "csv"}, db...)
		out, _, err := execute(t, args...)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "car_type,avg_claim", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "Pickup,1666.66"), lines[1])
		assert.True(t, strings.HasPrefix(lines[2], "SUV,3166.66"), lines[2])
		assert.Equal(t, "Sedan,7800", lines[3])
	})

	t.Run("json", func(t *testing.T) {
		args := append([]string{"run", "heavy_hitters", "-o", "json", "--param", "multiplier=10"}, db...)
		out, _, err := execute(t, args...)
		require.NoError(t, err)

		var rows []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, 3.0, rows[0]["claim_id"])
		assert.Equal(t, 50000.0, rows[0]["claim_amt"])
	})

	t.Run("table with stats", func(t *testing.T) {
		args := append([]string{"run", "running_claim_total", "--param", "client_id=1", "--stats", "--timeout", "10s"}, db...)
		out, stderr, err := execute(t, args...)
		require.NoError(t, err)
		assert.Contains(t, out, "running_total")
		assert.Contains(t, out, "(4 rows)")
		assert.Contains(t, stderr, "Run Statistics")
		assert.Contains(t, stderr, "sqlite")
	})

	t.Run("engine rejects statement", func(t *testing.T) {
		args := append([]string{"run", "top_claim_per_client_qualify"}, db...)
		_, _, err := execute(t, args...)
		assert.ErrorIs(t, err, database.ErrExecution)
		assert.Equal(t, "execution error", errorKind(err))
	})

	t.Run("type mismatch", func(t *testing.T) {
		args := append([]string{"run", "running_claim_total", "--param", "client_id=one"}, db...)
		_, _, err := execute(t, args...)
		assert.ErrorIs(t, err, binder.ErrTypeMismatch)
	})
}

func TestRunConnectionFailure(t *testing.T) {
	_, _, err := execute(t, "run", "avg_claim_by_car_type",
		"--driver", "mysql", "--db", "claims:secret@tcp(127.0.0.1:1)/claims?timeout=2s")
	assert.ErrorIs(t, err, database.ErrConnection)

	_, _, err = execute(t, "run", "avg_claim_by_car_type", "--driver", "mysql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create database pool")
}

func TestRunFromEnvironment(t *testing.T) {
	path := testutil.NewClaimsDB(t)
	t.Setenv("CLAIMSQL_DATABASE_DRIVER", "sqlite")
	t.Setenv("CLAIMSQL_DATABASE_DSN", path)
	t.Setenv("CLAIMSQL_RUN_FORMAT", "csv")

	out, _, err := execute(t, "run", "claims_without_car")
	require.NoError(t, err)
	assert.Equal(t, "claim_id,car_id,client_id\n14,6,1\n", out)
}

func TestRunFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "claimsql.yaml")
	content := fmt.Sprintf("database:\n  driver: sqlite\n  dsn: %s\nrun:\n  format: csv\n", testutil.NewClaimsDB(t))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))

	out, _, err := execute(t, "--config", cfgPath, "run", "duplicate_claims")
	require.NoError(t, err)
	assert.Contains(t, out, "4,4,2024-02-28,2500,2")

	// flags beat the config file
	out, _, err = execute(t, "--config", cfgPath, "run", "duplicate_claims", "--format", "md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "|"), out)
}

func TestInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "list", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")

	_, _, err = execute(t, "list", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	db := sqliteArgs(t)

	args := append([]string{"report", "fraud_detection", "--parallel", "2"}, db...)
	out, _, err := execute(t, args...)
	require.NoError(t, err)

	for _, id := range []string{"heavy_hitters", "frequent_claimants", "duplicate_claims", "outliers_by_car_type"} {
		assert.Contains(t, out, id)
	}
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "rows to review")
	assert.Less(t, strings.Index(out, "heavy_hitters"), strings.Index(out, "frequent_claimants"),
		"results follow catalog order")

	args = append([]string{"report", "window_functions", "--param", "client_id=1"}, db...)
	out, _, err = execute(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 templates in window_functions failed")
	assert.Contains(t, out, "FAILED: execution error")

	args = append([]string{"report", "loss_ratios"}, db...)
	_, _, err = execute(t, args...)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, "validate")
	require.NoError(t, err)
	store, _ := templates.Default()
	assert.Contains(t, out, fmt.Sprintf("built-in catalog: %d templates in 5 categories", store.Len()))

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
version: 1
templates:
  - id: open_claims
    category: reporting
    description: Claims still open.
    sql: SELECT id FROM claims WHERE status = 'open'
`), 0644))

	out, _, err = execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "1 templates in 1 categories")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`
version: 1
templates:
  - id: by_client
    category: reporting
    description: Claims of a client.
    sql: SELECT id FROM claims WHERE client_id = :client_id
`), 0644))

	_, _, err = execute(t, "validate", bad)
	var verr *templates.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), ":client_id")

	// the same file as the configured catalog breaks every command
	_, _, err = execute(t, "list", "--catalog", bad)
	assert.ErrorAs(t, err, &verr)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, Version)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&templates.NotFoundError{ID: "x"}, "not found"},
		{&binder.MissingParameterError{Template: "x", Name: "client_id"}, "missing parameter"},
		{&binder.TypeMismatchError{Template: "x", Name: "client_id", Want: templates.TypeInteger, Got: "string"}, "type mismatch"},
		{&database.ConnectionError{Driver: "mysql", Err: errors.New("refused")}, "connection error"},
		{&database.ExecutionError{TemplateID: "x", Message: "syntax error"}, "execution error"},
		{fmt.Errorf("run: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("something else"), ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, errorKind(tt.err), tt.err.Error())
	}

	assert.Equal(t, "not found: template \"x\" not found", describeError(&templates.NotFoundError{ID: "x"}))
}

func TestParseParamFlags(t *testing.T) {
	raw, err := parseParamFlags([]string{"a=1", "b=x=y", "a=2", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "2", "b": "x=y", "c": ""}, raw)

	for _, bad := range []string{"novalue", "=1", " =1"} {
		_, err := parseParamFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestSchema(t *testing.T) {
	out, _, err := execute(t, "schema", "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE claims")
	assert.NotContains(t, out, "INSERT INTO")

	file := filepath.Join(t.TempDir(), "out", "schema.sql")
	_, stderr, err := execute(t, "schema", "--out", file)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Schema written to")
	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(written), "INSERT INTO claims")

	_, _, err = execute(t, "schema", "indexes")
	assert.Error(t, err)
}

func TestSchemaApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	out, _, err := execute(t, "schema", "--apply", "--driver", "sqlite", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Statements:")
	assert.Contains(t, out, "6 of 6")

	out, _, err = execute(t, "run", "non_positive_claim_amounts", "--format", "csv", "--driver", "sqlite", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "claim_id,client_id,claim_amt\n13,4,0\n", out)

	// tables already exist
	_, _, err = execute(t, "schema", "tables", "--apply", "--driver", "sqlite", "--db", path)
	assert.Error(t, err)
}

func TestMaskDSN(t *testing.T) {
	tests := map[string]string{
		"claims:secret@tcp(db:3306)/claims":  "claims:***@tcp(db:3306)/claims",
		"postgres://claims:secret@db/claims": "postgres://claims:***@db/claims",
		"./claims.db":                        "./claims.db",
		"postgres://claims@db/claims":        "postgres://claims@db/claims",
	}
	for in, want := range tests {
		assert.Equal(t, want, maskDSN(in), in)
	}
}
