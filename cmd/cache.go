package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plx/internal/repositories"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats prints the size and age range of the search match cache.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	repo, db, err := r.matchRepository()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := repo.Stats()
	if err != nil {
		return err
	}

	r.writePlain("Cache: %s\n", r.config.Cache.Path)
	r.writePlain("Cached matches: %d\n", stats.Matches)
	if stats.Matches > 0 {
		r.writePlain("Oldest: %s\n", stats.Oldest.Format("2006-01-02 15:04:05"))
		r.writePlain("Newest: %s\n", stats.Newest.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// CacheClear deletes all cached search matches.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	repo, db, err := r.matchRepository()
	if err != nil {
		return err
	}
	defer db.Close()

	cleared, err := repo.Clear()
	if err != nil {
		return err
	}

	r.logger.Info("cache cleared", "matches", cleared)
	return r.writePlain("✓ Cleared %d cached matches\n", cleared)
}

// matchRepository opens the configured cache database. Unlike uploads, cache
// commands treat a missing path as an error rather than a disabled feature.
func (r *Runner) matchRepository() (*repositories.MatchRepository, interface{ Close() error }, error) {
	path := r.config.Cache.Path
	if path == "" {
		return nil, nil, fmt.Errorf("%w: no cache path configured (set cache.path)", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repositories.NewMatchRepository(db), db, nil
}
