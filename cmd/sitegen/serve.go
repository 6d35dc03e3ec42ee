package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitegen/internal/handlers"
	"sitegen/internal/metrics"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the generation HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if err := cfg.RequireProviders(); err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		var m *metrics.Metrics
		if cfg.Metrics.Enabled {
			m = metrics.Get()
		}
		a := newApp(cfg, log, m)
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if a.metrics != nil {
			collector := metrics.NewCollector(a.metrics, 15*time.Second).WatchCache("generation", a.cache)
			collector.Start(ctx)
			defer collector.Stop()
		}

		h := handlers.NewHandler(a.engine, a.router, version, log)
		engine, stopLimiter := handlers.SetupRouter(h, handlers.RouterConfig{
			Production:  cfg.IsProduction(),
			CORSOrigins: cfg.Server.CORSOrigins,
			APIKeys:     cfg.Server.APIKeys,
			RateLimit:   cfg.Server.RateLimit,
			RateBurst:   cfg.Server.RateBurst,
			Metrics:     a.metrics,
			Gatherer:    prometheus.DefaultGatherer,
		})
		defer stopLimiter()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Info("server listening",
				zap.String("addr", srv.Addr),
				zap.Strings("providers", providerNames(a)),
				zap.String("environment", cfg.Environment),
			)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Info("shutting down", zap.String("signal", sig.String()))

			shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer done()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}
		return nil
	},
}

func providerNames(a *app) []string {
	var names []string
	for _, p := range a.router.Providers() {
		names = append(names, string(p))
	}
	return names
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
