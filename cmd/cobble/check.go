package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/buildbuildio/cobble/cfgerrors"
	"github.com/buildbuildio/cobble/config"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Resolve configuration documents and print the result",
		Long: `Resolve every document, later documents take precedence, and print either
a summary or the whole configuration set. Any failure is reported with its
error code and the command exits with status 1.`,
		Example: `  # Summary of a merged configuration
  cobble check base.graphql overrides.yml

  # Whole configuration set as JSON
  cobble check -o json https://example.com/gateway.yml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args)
		},
	}
}

func (a *app) runCheck(cmd *cobra.Command, paths []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.settings.Timeout)
	defer cancel()

	set, err := a.newReader(nil).ReadAll(ctx, paths...)
	if err != nil {
		if reportErr := a.report(cmd.ErrOrStderr(), err); reportErr != nil {
			return reportErr
		}
		return errReported
	}

	if a.settings.Output == outputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(set)
	}

	printSummary(cmd.OutOrStdout(), paths, set)
	return nil
}

// report writes the coded error list, as JSON when json output is selected.
func (a *app) report(w io.Writer, err error) error {
	list := cfgerrors.FormatError(err)

	if a.settings.Output == outputJSON {
		return json.NewEncoder(w).Encode(map[string]interface{}{"errors": list})
	}

	for _, e := range list {
		line := fmt.Sprintf("error[%v]", e.Extensions["code"])
		if ref, ok := e.Extensions["reference"]; ok {
			line += fmt.Sprintf(" %v", ref)
		}
		line += ": " + e.Message

		if len(e.Locations) > 0 {
			line += fmt.Sprintf(" (line %d, column %d)", e.Locations[0].Line, e.Locations[0].Column)
		}

		fmt.Fprintln(w, line)
	}

	return nil
}

func printSummary(w io.Writer, paths []string, set *config.ConfigSet) {
	cfg := set.Config

	types := lo.Keys(cfg.Types)
	sort.Strings(types)

	fmt.Fprintf(w, "files:       %s\n", strings.Join(paths, ", "))
	fmt.Fprintf(w, "address:     %s\n", cfg.Server.Address())
	fmt.Fprintf(w, "query:       %s\n", lo.FromPtrOr(cfg.Schema.Query, "-"))
	fmt.Fprintf(w, "types:       %d %s\n", len(types), listOrDash(types))
	fmt.Fprintf(w, "descriptors: %d %s\n", len(set.Extensions.Descriptors), listOrDash(set.Extensions.Descriptors.Names()))

	if cfg.Server.Script != nil {
		fmt.Fprintf(w, "script:      inline=%t\n", cfg.Server.Script.IsInline())
	}
}

func listOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return "[" + strings.Join(names, ", ") + "]"
}
