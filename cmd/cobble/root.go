package main

import (
	"errors"
	"net/http"

	"github.com/buildbuildio/cobble"
	"github.com/buildbuildio/cobble/metrics"
	"github.com/buildbuildio/cobble/source"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// errReported is returned once the failure has already been written out.
var errReported = errors.New("resolution failed")

type app struct {
	settingsFile string
	settings     *Settings
	logger       zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "cobble",
		Short: "Resolve gateway configuration documents",
		Long: `cobble reads gateway configuration documents (GraphQL SDL, YAML or JSON),
local or remote, inlines worker scripts, resolves protobuf descriptors and
merges everything into a single configuration set.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			settings, err := loadSettings(a.settingsFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			a.settings = settings
			a.logger = newLogger(cmd.ErrOrStderr(), settings)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.settingsFile, settingsFlag, "", "settings file (default: ./cobble.yaml)")
	flags.String("log-level", "", "Log level (debug|info|warn|error|disabled)")
	flags.String("log-format", "", "Log format (console|json)")
	flags.Duration("timeout", 0, "Timeout of a single resolution")
	flags.Duration("http-timeout", 0, "Timeout of a single remote fetch")
	flags.StringP("output", "o", "", "Output format (text|json)")
	flags.String("metrics-addr", "", "Listen address of the admin server in watch mode")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{outputText, outputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))

	return rootCmd
}

// newReader builds a reader whose loader honours the http timeout. The same
// loader serves documents, scripts and descriptors.
func (a *app) newReader(collector *metrics.Collector) *cobble.Reader {
	httpClient := source.NewHTTPClient().WithHTTPClient(&http.Client{Timeout: a.settings.HTTPTimeout})

	loader := source.NewLoader(
		source.WithHTTPTransport(httpClient),
		source.WithLogger(a.logger),
		source.WithMetrics(collector),
	)

	return cobble.NewReader(
		cobble.WithLoader(loader),
		cobble.WithLogger(a.logger),
		cobble.WithMetrics(collector),
	)
}
