package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/willfong/claimsql/internal/binder"
	"github.com/willfong/claimsql/internal/catalog"
	"github.com/willfong/claimsql/internal/config"
	"github.com/willfong/claimsql/internal/database"
	"github.com/willfong/claimsql/internal/templates"
	"github.com/willfong/claimsql/internal/ui"
)

// app is the state shared by one command tree
type app struct {
	v       *viper.Viper
	cfgFile string
	noColor bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the claimsql command tree
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "claimsql",
		Short: "Catalog of parameterized SQL queries over insurance claims data",
		Long: `A catalog of named, categorized SQL query patterns for an insurance
claims database (clients, cars, claims).

Every template declares typed parameters. Values are bound out of band,
never spliced into the SQL text.

Settings come from flags, CLAIMSQL_* environment variables, .env and
claimsql.yaml. Compile-time defaults are in internal/config/defaults.go.

Example usage:
  claimsql list --category fraud_detection
  claimsql run heavy_hitters --param multiplier=10 --db "user:pass@tcp(host:3306)/claims"
  claimsql schema --apply --driver sqlite --db ./claims.db
  claimsql report data_quality --driver sqlite --db ./claims.db`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./claimsql.yaml)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colors and animations")
	flags.String("driver", config.DBDriver, "database driver (mysql, postgres, pgx, sqlite, duckdb)")
	flags.String("db", "", "database connection string")
	flags.String("catalog", "", "YAML catalog to use instead of the built-in one")
	flags.StringP("format", "o", config.OutputFormat, "result format (table, json, csv, md)")
	flags.Duration("timeout", config.RunTimeout, "per-query timeout (0 = none)")

	a.bind("verbose", flags.Lookup("verbose"))
	a.bind("database.driver", flags.Lookup("driver"))
	a.bind("database.dsn", flags.Lookup("db"))
	a.bind("catalog.file", flags.Lookup("catalog"))
	a.bind("run.format", flags.Lookup("format"))
	a.bind("run.timeout", flags.Lookup("timeout"))

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(
		newVersionCmd(a),
		newListCmd(a),
		newCategoriesCmd(a),
		newShowCmd(a),
		newRenderCmd(a),
		newRunCmd(a),
		newReportCmd(a),
		newValidateCmd(a),
		newSchemaCmd(a),
	)

	return rootCmd
}

// Execute runs the command tree and prints the error, with its kind,
// to stderr
func Execute() error {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if err != nil {
		u := ui.NewFor(os.Stderr)
		if noColor, _ := rootCmd.PersistentFlags().GetBool("no-color"); noColor {
			u.SetNoColor(true)
		}
		fmt.Fprintln(os.Stderr, u.Error(describeError(err)))
	}
	return err
}

func (a *app) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag for %s: %v", key, err))
	}
}

// load builds the configuration: defaults, .env, config file, environment
// and flags, in increasing priority
func (a *app) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	if err := config.Init(a.v, a.cfgFile); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// ui returns a UI for w honouring --no-color
func (a *app) ui(w io.Writer) *ui.UI {
	u := ui.NewFor(w)
	if a.noColor {
		u.SetNoColor(true)
	}
	return u
}

func (a *app) openStore() (*templates.Store, error) {
	if a.cfg.Catalog.File != "" {
		return templates.LoadFile(a.cfg.Catalog.File)
	}
	return templates.Default()
}

// session is a catalog together with the pool it executes on, if any
type session struct {
	catalog *catalog.Catalog
	pool    *database.Pool
}

func (s *session) Close() {
	if s.pool != nil {
		_ = s.pool.Close()
	}
}

// openSession builds the catalog for the configured driver. Without
// execute no pool is opened, so listing and rendering need no database.
func (a *app) openSession(execute bool) (*session, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	style, err := binder.StyleFor(a.cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	b := binder.New(style, binder.WithCacheSize(a.cfg.Catalog.CacheSize))

	s := &session{}
	var exec catalog.Executor
	if execute {
		pool, err := database.NewPool(a.cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		s.pool = pool
		exec = pool
	}

	s.catalog = catalog.New(store, b, exec, catalog.WithLogger(a.logger))
	return s, nil
}

// withTimeout applies the configured per-query timeout
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Run.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Run.Timeout)
	}
	return context.WithCancel(ctx)
}

// errorKind names the failure category of err, or "" for other errors
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, templates.ErrNotFound):
		return "not found"
	case errors.Is(err, binder.ErrMissingParameter):
		return "missing parameter"
	case errors.Is(err, binder.ErrTypeMismatch):
		return "type mismatch"
	case errors.Is(err, database.ErrConnection):
		return "connection error"
	case errors.Is(err, database.ErrExecution):
		return "execution error"
	default:
		return ""
	}
}

func describeError(err error) string {
	if kind := errorKind(err); kind != "" {
		return kind + ": " + err.Error()
	}
	return err.Error()
}
