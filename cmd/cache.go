package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/geo-martino/musify/internal/cache"
	"github.com/geo-martino/musify/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats reports how many responses are currently cached.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: response cache not initialized", shared.ErrInvalidConfig)
	}

	var count int
	switch store := r.store.(type) {
	case *cache.SQLite:
		c, err := store.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}
		count = c
		r.writePlain("Backend: sqlite (%s)\n", r.config.Cache.Path)
	case *cache.Memory:
		count = store.Len()
		r.writePlain("Backend: memory\n")
	default:
		return fmt.Errorf("%w: unknown cache backend", shared.ErrInvalidConfig)
	}

	r.writePlain("Cached responses: %d\n", count)
	return nil
}

// CacheClear removes cached responses, optionally only those whose
// fingerprint starts with a given prefix (e.g. "GET /search").
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return fmt.Errorf("%w: response cache not initialized", shared.ErrInvalidConfig)
	}

	prefix := cmd.String("prefix")
	pred := func(string) bool { return true }
	if prefix != "" {
		pred = func(fingerprint string) bool {
			return strings.HasPrefix(fingerprint, prefix)
		}
	}

	if err := r.store.Invalidate(ctx, pred); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	if prefix != "" {
		r.logger.Info("cache cleared", "prefix", prefix)
		r.writePlain("✓ Cleared cached responses matching %q\n", prefix)
	} else {
		r.logger.Info("cache cleared")
		r.writePlain("✓ Cleared all cached responses\n")
	}
	return nil
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the response cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show response cache statistics",
				Action: r.CacheStats,
			},
			{
				Name:  "clear",
				Usage: "Remove cached responses",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Only clear fingerprints with this prefix (e.g. \"GET /search\")",
					},
				},
				Action: r.CacheClear,
			},
		},
	}
}
