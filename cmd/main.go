package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p := os.Getenv("YTPLAY_CONFIG"); p != "" {
		configPath = p
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, shared.ErrMissingConfig) {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
		config = shared.DefaultConfig()
	}

	if err := shared.ApplyLogConfig(logger, config.Log); err != nil {
		logger.Warn("invalid log level", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "ytplay",
		Usage:    "Play local files and YouTube tracks from one library",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
