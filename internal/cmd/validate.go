package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/willfong/claimsql/internal/templates"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a YAML catalog for problems",
		Long: `Load a catalog and report every problem found: unknown categories or
types, duplicate ids, placeholders without a declared parameter,
parameters the SQL never uses and invalid defaults.

Without a file the configured catalog is checked (--catalog, or the
built-in one).

Example:
  claimsql validate ./my-catalog.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := "built-in catalog"
			var (
				store *templates.Store
				err   error
			)
			switch {
			case len(args) == 1:
				source = args[0]
				store, err = templates.LoadFile(args[0])
			case a.cfg.Catalog.File != "":
				source = a.cfg.Catalog.File
				store, err = templates.LoadFile(a.cfg.Catalog.File)
			default:
				store, err = templates.Default()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.ui(out).Success(fmt.Sprintf("%s: %d templates in %d categories",
				source, store.Len(), len(store.Categories()))))
			return nil
		},
	}
}
