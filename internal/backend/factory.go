package backend

import (
	"context"
	"fmt"

	"manageexpense/internal/amqp"
	"manageexpense/internal/config"
	"manageexpense/internal/log"
	"manageexpense/internal/services"
	"manageexpense/internal/storage"
	"manageexpense/internal/store/memory"
)

// DefaultFactory builds the backend named by DATA_BACKEND.
type DefaultFactory struct {
	logger *log.Logger
	// dial is swapped in tests.
	dial func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dial:   amqp.NewClient,
	}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg *config.Config) (*BackendResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.DataBackend)
	}
	if bt == SQLiteBackend {
		return f.createSQLiteBackend(ctx, cfg)
	}
	return f.createMemoryBackend(cfg)
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, cfg *config.Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// A typed nil *amqp.Client must not reach the service as a non-nil
	// interface.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := f.dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", log.FieldError, err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewExpenseService(repo, publisher)
	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", publisher != nil)

	return &BackendResult{Service: svc, Type: SQLiteBackend, Cleanup: svc.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(cfg *config.Config) (*BackendResult, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	st, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory seed: %w", err)
	}

	svc := services.NewExpenseService(st, nil)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Service: svc, Type: MemoryBackend, Cleanup: svc.Close}, nil
}
