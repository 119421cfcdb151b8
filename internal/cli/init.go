// Package cli holds the start-up steps shared by the binaries in cmd/.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"manageexpense/internal/config"
	"manageexpense/internal/log"
)

// SetupLogger builds the process logger at the given level and installs it
// as the slog default.
func SetupLogger(level, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files for local development. A missing file is not
// an error; a malformed one is.
func LoadEnvFile(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	var present []string
	for _, name := range filenames {
		if _, err := os.Stat(name); err == nil {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration from the environment and runs
// validate on it (Config.Validate when nil).
func LoadAndValidateConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
		}
	}()
	return ctx, stop
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}
