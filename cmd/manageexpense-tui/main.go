package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"manageexpense/internal/backend"
	"manageexpense/internal/cli"
	"manageexpense/internal/config"
	"manageexpense/internal/log"
	"manageexpense/internal/tui"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile string
		logFile string
	)
	cmd := &cobra.Command{
		Use:   "manageexpense-tui",
		Short: "Add, edit and delete expenses from the terminal",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), envFile, logFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "environment file to load before reading configuration")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (logs are discarded when empty)")
	return cmd
}

func run(ctx context.Context, envFile, logFile string) error {
	if err := cli.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig(nil)
	if err != nil {
		return err
	}

	// the terminal belongs to the UI; logs go to a file or nowhere
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "manageexpense-tui",
		Output:    out,
	})
	ctx = log.NewContext(ctx, logger)

	result, err := backend.NewFactory(logger).CreateBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend selected, changes are lost on exit")
	}

	p := tea.NewProgram(tui.New(ctx, result.Service, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
