package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/willfong/claimsql/internal/binder"
	"github.com/willfong/claimsql/internal/templates"
)

// parseParamFlags splits repeated --param name=value flags. A later value
// for the same name wins.
func parseParamFlags(flags []string) (map[string]string, error) {
	raw := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q: expected name=value", f)
		}
		raw[name] = value
	}
	return raw, nil
}

// bindFlags converts --param flags into a ParameterSet typed for t and
// warns about names t does not declare
func (a *app) bindFlags(w io.Writer, t templates.Template, flags []string) (binder.ParameterSet, error) {
	raw, err := parseParamFlags(flags)
	if err != nil {
		return nil, err
	}
	if unknown := binder.Unknown(t, raw); len(unknown) > 0 {
		fmt.Fprintln(w, a.ui(w).Warning("ignoring undeclared parameters: "+strings.Join(unknown, ", ")))
	}
	return binder.Parse(t, raw)
}
