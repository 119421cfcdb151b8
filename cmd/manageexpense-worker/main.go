package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"manageexpense/internal/amqp"
	"manageexpense/internal/cli"
	"manageexpense/internal/config"
	"manageexpense/internal/log"
	gsheet "manageexpense/internal/sheets/google"
	"manageexpense/internal/storage"
	"manageexpense/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Failed to load .env file", err)
	}

	cfg, err := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg.LogLevel, "manageexpense-worker")
	logger.Info("Starting manageexpense-worker", log.FieldOperation, log.OpStartup)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	ctx = log.NewContext(ctx, logger)

	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		cli.Fatal(logger, "Worker stopped with error", err)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}

// checkSchema fails on a dirty schema: a migration stopped midway and
// synced_version cannot be trusted.
func checkSchema(dbPath string) (uint, error) {
	version, dirty, err := storage.SchemaVersion(dbPath)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

// run returns only after every opened resource has been closed.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("initialize SQLite repository: %w", err)
	}
	defer repo.Close()

	version, err := checkSchema(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("check database schema: %w", err)
	}
	logger.Info("Database schema ready", "schema_version", version)

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	mirror, err := gsheet.New(setupCtx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	}, logger)
	if err == nil {
		err = mirror.EnsureHeader(setupCtx)
	}
	cancel()
	if err != nil {
		return fmt.Errorf("initialize Google Sheets mirror: %w", err)
	}
	logger.Info("Google Sheets mirror initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	w := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize, logger)

	if _, err := w.Reconcile(ctx); err != nil {
		logger.Error("Startup sync check failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeExpenseEvents(gctx, w.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		// periodic reconcile picks up events lost while the broker was down
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := w.Reconcile(gctx); err != nil && gctx.Err() == nil {
					logger.Error("Periodic sync failed", log.FieldError, err)
				}
			}
		}
	})
	return g.Wait()
}
