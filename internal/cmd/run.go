package cmd

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willfong/claimsql/internal/binder"
	"github.com/willfong/claimsql/internal/config"
	"github.com/willfong/claimsql/internal/templates"
	"github.com/willfong/claimsql/internal/ui"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		params []string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "run <template>",
		Short: "Run a template against the database",
		Long: `Bind parameters to a template, run it and print the rows.

Parameters are given as --param name=value and parsed with the type the
template declares (dates as YYYY-MM-DD). Optional parameters fall back to
their defaults.

Example:
  claimsql run avg_claim_by_car_type --db "user:pass@tcp(localhost:3306)/claims"
  claimsql run heavy_hitters --param multiplier=5 --format json --db "..."
  claimsql run running_claim_total --param client_id=42 --driver sqlite --db ./claims.db
  claimsql run top_claims_by_make --param car_make=Ford --timeout 30s --stats --db "..."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := s.catalog.Describe(args[0])
			if err != nil {
				return err
			}
			ps, err := a.bindFlags(cmd.ErrOrStderr(), t, params)
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			errOut := cmd.ErrOrStderr()
			spin := a.ui(errOut).NewSpinner(errOut, "Running "+t.ID)
			spin.Start()
			rs, err := s.catalog.Run(ctx, t.ID, ps)
			spin.Stop()
			if err != nil {
				return err
			}

			if err := ui.RenderResult(cmd.OutOrStdout(), rs, a.cfg.Run.Format); err != nil {
				return err
			}

			if stats {
				poolStats := s.pool.Stats()
				fmt.Fprintln(errOut, a.ui(errOut).SummaryBox("Run Statistics", []ui.KV{
					{Key: "Template", Value: t.ID},
					{Key: "Driver", Value: s.pool.Driver()},
					{Key: "Rows", Value: strconv.Itoa(rs.Len())},
					{Key: "Duration", Value: rs.Duration.Round(time.Microsecond).String()},
					{Key: "Connections", Value: fmt.Sprintf("%d open / %d idle", poolStats.OpenConnections, poolStats.Idle)},
					{Key: "Status", Value: "ok"},
				}))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as name=value (repeatable)")
	cmd.Flags().BoolVar(&stats, "stats", false, "print timing and pool statistics to stderr")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "report <category>",
		Short: "Run every template in a category",
		Long: `Run all templates of a category concurrently with one set of parameters
and print each result followed by a summary.

A template that fails does not stop the others; the command exits non-zero
if any failed. For alerting categories (fraud_detection, data_quality)
templates that return rows are flagged for review.

Example:
  claimsql report data_quality --driver sqlite --db ./claims.db
  claimsql report fraud_detection --param multiplier=5 --parallel 2 --db "..."`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := args[0]

			s, err := a.openSession(true)
			if err != nil {
				return err
			}
			defer s.Close()

			ps, err := a.bindCategoryFlags(cmd, s.catalog.Templates(category), params)
			if err != nil {
				return err
			}

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			outcomes := s.catalog.RunCategory(ctx, category, ps, a.cfg.Run.Parallel)
			if len(outcomes) == 0 {
				return fmt.Errorf("no templates in category %q", category)
			}

			out := cmd.OutOrStdout()
			u := a.ui(out)
			info := templates.LookupCategory(category)

			fmt.Fprintln(out, u.Header(info.Title))
			for _, o := range outcomes {
				fmt.Fprintln(out)
				fmt.Fprintln(out, u.Bold(o.TemplateID))
				if o.Err != nil {
					fmt.Fprintln(out, u.Error(describeError(o.Err)))
					continue
				}
				if err := ui.RenderResult(out, o.Result, a.cfg.Run.Format); err != nil {
					return err
				}
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, u.Bold("Summary"))
			failed := 0
			for _, o := range outcomes {
				switch {
				case o.Err != nil:
					failed++
					fmt.Fprintln(out, u.TableRow(o.TemplateID, errorKindOr(o.Err, "error"), ui.StatusError))
				case info.Alerting && o.Result.Len() > 0:
					fmt.Fprintln(out, u.TableRow(o.TemplateID, fmt.Sprintf("%d rows to review", o.Result.Len()), ui.StatusWarning))
				default:
					fmt.Fprintln(out, u.TableRow(o.TemplateID, fmt.Sprintf("%d rows in %s", o.Result.Len(), o.Result.Duration.Round(time.Millisecond)), ui.StatusSuccess))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d templates in %s failed", failed, len(outcomes), category)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as name=value (repeatable)")
	cmd.Flags().Int("parallel", config.ReportParallelism, "templates to run at once")
	a.bind("run.parallel", cmd.Flags().Lookup("parallel"))
	return cmd
}

// bindCategoryFlags parses --param flags against every template that
// declares them. Names no template declares are reported and ignored.
func (a *app) bindCategoryFlags(cmd *cobra.Command, ts iter.Seq[templates.Template], flags []string) (binder.ParameterSet, error) {
	raw, err := parseParamFlags(flags)
	if err != nil {
		return nil, err
	}

	ps := binder.ParameterSet{}
	declared := map[string]bool{}
	for t := range ts {
		parsed, err := binder.Parse(t, raw)
		if err != nil {
			return nil, err
		}
		for name, v := range parsed {
			ps[name] = v
			declared[name] = true
		}
	}

	var unknown []string
	for name := range raw {
		if !declared[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		w := cmd.ErrOrStderr()
		fmt.Fprintln(w, a.ui(w).Warning("ignoring undeclared parameters: "+strings.Join(unknown, ", ")))
	}
	return ps, nil
}

func errorKindOr(err error, fallback string) string {
	if kind := errorKind(err); kind != "" {
		return kind
	}
	return fallback
}
