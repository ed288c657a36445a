// Package main is the entry point for the sitegen command line client
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ontree-co/sitegen/internal/cli"
	"github.com/ontree-co/sitegen/internal/config"
	"github.com/ontree-co/sitegen/internal/logging"
	"github.com/ontree-co/sitegen/internal/sitegen"
	"github.com/ontree-co/sitegen/internal/telemetry"
	"github.com/ontree-co/sitegen/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && os.Getenv("DEBUG") == "true" {
		_, _ = fmt.Fprintf(stderr, "No .env file found or error loading it: %v\n", err)
	}

	// Handle the version flag before loading configuration
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-version") {
		_, _ = fmt.Fprint(stdout, version.Get())
		return cli.ExitSuccess
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return cli.ExitInvalidUsage
	}

	if err := logging.Initialize(logDir(cfg), stderr); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: failed to initialize file logging: %v\n", err)
	}
	defer func() { _ = logging.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.InitializeFromEnv(ctx, version.Get().Version)
	if err != nil {
		logging.Warnf("Failed to initialize telemetry: %v", err)
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Warnf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	manager, err := sitegen.NewManager(cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to create client: %v\n", err)
		return cli.ExitRuntimeError
	}
	defer manager.Close()

	logging.Debugf("Configuration: %s", cfg)
	return cli.ExecuteContext(ctx, args, cli.NewManagerAdapter(manager), stdout, stderr)
}

// logDir returns the configured log directory, falling back to ./logs in
// development mode.
func logDir(cfg *config.Config) string {
	if cfg.LogDir != "" {
		return cfg.LogDir
	}
	if os.Getenv("SITEGEN_ENV") == "development" || os.Getenv("DEBUG") == "true" {
		return "./logs"
	}
	return ""
}
