package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pevans/newsreader"
	"github.com/pevans/newsreader/config"
	"github.com/pevans/newsreader/metrics"
)

func main() {
	var addr string

	cmd := &cobra.Command{
		Use:          "newsreader-api",
		Short:        "Serve articles and preferences over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, addr string) error {
	settings, cfgErr := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: settings.SlogLevel()}))
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Warn("failed to load config file, continuing with defaults and environment", slog.Any("error", cfgErr))
	}
	if settings.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(settings.PreferencesDSN)
	if err != nil {
		logger.Error("failed to open preferences", slog.Any("error", err))
		return err
	}
	defer store.Close()

	fetchMetrics := metrics.NewFetchMetrics()
	fetcher := newsreader.NewFetcher(append(newsreader.SettingsOptions(settings), newsreader.WithLogger(logger))...)

	runners := make(map[string]newsreader.CycleRunner)
	for _, source := range []string{newsreader.SourceAPI, newsreader.SourceRSS} {
		loader, err := newsreader.NewLoaderFor(source, fetcher,
			newsreader.WithMetrics(fetchMetrics),
			newsreader.WithLoaderLogger(logger))
		if err != nil {
			return err
		}
		runners[source] = loader
	}

	server := newsreader.NewAPIServer(store, settings, runners,
		newsreader.WithMetricsHandler(fetchMetrics.Handler()),
		newsreader.WithAPILogger(logger))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.Any("error", err))
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")

	return nil
}

func openStore(dsn string) (*config.PreferenceStore, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create preferences directory: %w", err)
		}
	}
	return config.NewPreferenceStore(dsn)
}
