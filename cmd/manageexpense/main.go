package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"manageexpense/internal/backend"
	"manageexpense/internal/cli"
	"manageexpense/internal/config"
	apphttp "manageexpense/internal/http"
	"manageexpense/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Failed to load .env file", err)
	}

	cfg, err := cli.LoadAndValidateConfig(nil)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, "manageexpense")

	ctx, stop := cli.SignalContext(context.Background(), logger)
	ctx = log.NewContext(ctx, logger)

	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	result, err := backend.NewFactory(logger).CreateBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	return serve(ctx, ":"+cfg.Port, result, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
	})
}

// serve runs the HTTP server until ctx is done or it fails. The backend is
// released before serve returns, on every path.
func serve(ctx context.Context, addr string, result *backend.BackendResult, opts apphttp.Options) error {
	logger := opts.Logger
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	srv, err := apphttp.NewServer(addr, result.Service, opts)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting manageexpense server", "addr", addr, "backend", result.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
