package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willfong/claimsql/internal/database"
	"github.com/willfong/claimsql/internal/schema"
	"github.com/willfong/claimsql/internal/ui"
)

func newSchemaCmd(a *app) *cobra.Command {
	var (
		outputFile string
		apply      bool
	)

	cmd := &cobra.Command{
		Use:   "schema [part]",
		Short: "Output or apply the claims database schema",
		Long: `Output the SQL for the tables the catalog queries run against.

Available parts:
  full      Tables and demo data (default)
  tables    CREATE TABLE statements only
  seed      Demo data only (clients, cars, claims with known answers)

With --apply the statements run against the configured database instead
of being printed.

Examples:
  claimsql schema                          # Print tables and demo data
  claimsql schema tables --out schema.sql  # Save tables to a file
  claimsql schema --apply --driver sqlite --db ./claims.db`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			part := schema.PartFull
			if len(args) > 0 {
				part = args[0]
			}
			script, err := schema.SQL(part)
			if err != nil {
				return err
			}

			if apply {
				return a.applySchema(cmd, part, script)
			}

			if outputFile == "" {
				fmt.Fprint(cmd.OutOrStdout(), script)
				return nil
			}

			if dir := filepath.Dir(outputFile); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("creating directory: %w", err)
				}
			}
			if err := os.WriteFile(outputFile, []byte(script), 0644); err != nil {
				return fmt.Errorf("writing file: %w", err)
			}
			errOut := cmd.ErrOrStderr()
			fmt.Fprintln(errOut, a.ui(errOut).Success("Schema written to: "+outputFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFile, "out", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&apply, "apply", false, "run the statements against the configured database")
	return cmd
}

func (a *app) applySchema(cmd *cobra.Command, part, script string) error {
	pool, err := database.NewPool(a.cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database pool: %w", err)
	}
	defer pool.Close()

	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	u := a.ui(out)

	if err := pool.Connect(ctx); err != nil {
		return err
	}

	start := time.Now()
	n, err := schema.Apply(ctx, pool.DB(), script)
	elapsed := time.Since(start)

	items := []ui.KV{
		{Key: "Database", Value: a.cfg.Database.Driver + " " + maskDSN(a.cfg.Database.DSN)},
		{Key: "Part", Value: part},
		{Key: "Statements", Value: fmt.Sprintf("%d of %d", n, len(schema.Statements(script)))},
		{Key: "Total time", Value: formatDuration(elapsed)},
	}
	if err != nil {
		items = append(items, ui.KV{Key: "Status", Value: "Failed"})
		fmt.Fprintln(out, u.SummaryBox("Schema Summary", items))
		return err
	}
	items = append(items, ui.KV{Key: "Status", Value: "ok"})
	fmt.Fprintln(out, u.SummaryBox("Schema Summary", items))
	return nil
}

// maskDSN hides the password in user:password@host style DSNs
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	creds := dsn[:at]
	colon := strings.LastIndex(creds, ":")
	if colon < 0 {
		return dsn
	}
	return creds[:colon+1] + "***" + dsn[at:]
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
