package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geo-martino/musify/internal/cache"
	"github.com/geo-martino/musify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the configuration file and initializes the response cache
// database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !config.Cache.Enabled || config.Cache.Path == "" {
		r.logger.Info("persistent cache disabled, skipping database setup")
		r.writePlain("✓ Setup complete (in-memory cache)\n")
		return nil
	}

	r.logger.Info("initializing cache database", "path", config.Cache.Path)

	if dir := filepath.Dir(config.Cache.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := shared.NewDatabase(config.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to create cache database: %w", err)
	}
	defer db.Close()

	if _, err := cache.NewSQLite(db, r.logger); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	r.logger.Infof("setup complete for cache database: %v", config.Cache.Path)
	r.writePlain("✓ Setup complete\n")
	r.writePlain("  Config: %s\n", configPath)
	r.writePlain("  Cache: %s\n", config.Cache.Path)
	return nil
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the response cache",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
