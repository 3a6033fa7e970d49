package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/willfong/claimsql/internal/templates"
	"github.com/willfong/claimsql/internal/ui"
)

func newListCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List query templates",
		Long: `List the templates in the catalog, in catalog order.

Required parameters are marked with *.

Example:
  claimsql list
  claimsql list --category fraud_detection`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			var rows [][]string
			for t := range s.catalog.Templates(category) {
				rows = append(rows, []string{t.ID, t.Category, paramSummary(t), t.Description})
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, a.ui(out).Warning(fmt.Sprintf("no templates in category %q", category)))
				return nil
			}
			ui.RenderTable(out, []string{"ID", "Category", "Parameters", "Description"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list templates in this category")
	return cmd
}

// paramSummary lists parameter names, marking required ones with *
func paramSummary(t templates.Template) string {
	names := make([]string, len(t.Parameters))
	for i, p := range t.Parameters {
		names[i] = p.Name
		if p.Required {
			names[i] += "*"
		}
	}
	return strings.Join(names, ", ")
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List template categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			u := a.ui(out)

			var rows [][]string
			for _, c := range s.catalog.Categories() {
				rows = append(rows, []string{u.Category(c.CategoryInfo), c.Title, strconv.Itoa(c.Templates), c.Description})
			}
			ui.RenderTable(out, []string{"Category", "Title", "Templates", "Description"}, rows)
			return nil
		},
	}
}
