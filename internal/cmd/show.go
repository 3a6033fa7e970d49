package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willfong/claimsql/internal/templates"
	"github.com/willfong/claimsql/internal/ui"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <template>",
		Short: "Show a template's parameters and SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			t, err := s.catalog.Describe(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			u := a.ui(out)

			fmt.Fprintln(out, u.Header(t.ID))
			fmt.Fprintln(out)
			fmt.Fprintln(out, u.KeyValue("Category", u.Category(templates.LookupCategory(t.Category))))
			fmt.Fprintln(out, u.KeyValue("Description", t.Description))
			if len(t.Dialects) > 0 {
				fmt.Fprintln(out, u.KeyValue("Dialects", strings.Join(t.Dialects, ", ")))
			}
			fmt.Fprintln(out)

			if len(t.Parameters) > 0 {
				rows := make([][]string, len(t.Parameters))
				for i, p := range t.Parameters {
					def := ""
					if p.Default != nil {
						def = ui.FormatValue(p.Default)
					}
					rows[i] = []string{p.Name, string(p.Type), strconv.FormatBool(p.Required), def, p.Description}
				}
				ui.RenderTable(out, []string{"Parameter", "Type", "Required", "Default", "Description"}, rows)
				fmt.Fprintln(out)
			}

			fmt.Fprintln(out, strings.TrimSpace(t.SQL))
			return nil
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Bind parameters and print the statement without running it",
		Long: `Bind parameters to a template and print the statement the driver would
receive, with its positional arguments. Nothing is executed.

The placeholder style follows --driver.

Example:
  claimsql render heavy_hitters --param multiplier=5
  claimsql render claims_in_period --driver postgres --param start_date=2024-01-01 --param end_date=2024-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(false)
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
			stmt, err := s.catalog.Render(t.ID, ps)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, stmt.SQL)
			if len(stmt.Args) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			rows := make([][]string, len(stmt.Args))
			for i, v := range stmt.Args {
				rows[i] = []string{strconv.Itoa(i + 1), stmt.Names[i], ui.FormatValue(v)}
			}
			ui.RenderTable(out, []string{"#", "Parameter", "Value"}, rows)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as name=value (repeatable)")
	return cmd
}
