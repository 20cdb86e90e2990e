package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/buildbuildio/cobble"
	"github.com/buildbuildio/cobble/config"
	"github.com/buildbuildio/cobble/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE...",
		Short: "Keep configuration documents resolved and reload them on change",
		Long: `Resolve the documents once, then watch the local ones and resolve again
whenever they change. A failed reload keeps the last good configuration.
The admin server exposes /metrics, /config and /healthz.`,
		Example: `  cobble watch --metrics-addr :9090 gateway.graphql local.yml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, args)
		},
	}
}

func (a *app) runWatch(cmd *cobra.Command, paths []string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(registry)

	initCtx, cancel := context.WithTimeout(cmd.Context(), a.settings.Timeout)
	holder, err := cobble.NewHolder(initCtx, a.newReader(collector), paths...)
	cancel()
	if err != nil {
		if reportErr := a.report(cmd.ErrOrStderr(), err); reportErr != nil {
			return reportErr
		}
		return errReported
	}
	defer holder.Stop()

	holder.WithReloadTimeout(a.settings.Timeout)

	holder.OnChange(func(set *config.ConfigSet) {
		a.logger.Info().
			Int("types", len(set.Config.Types)).
			Int("descriptors", len(set.Extensions.Descriptors)).
			Msg("configuration updated")
	})

	eg, ctx := errgroup.WithContext(cmd.Context())

	if err := holder.WatchFiles(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    a.settings.MetricsAddr,
		Handler: newAdminRouter(holder, registry),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		a.logger.Info().Str("addr", srv.Addr).Msg("admin server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		a.logger.Debug().Msg("shutting down admin server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func newAdminRouter(holder *cobble.Holder, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/config", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(holder.Get()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
