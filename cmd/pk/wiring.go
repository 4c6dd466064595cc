package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/steveyegge/pikpoint/internal/board"
	"github.com/steveyegge/pikpoint/internal/debug"
	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/source/factory"
)

// newBoardClient builds the REST client from board.* settings.
func newBoardClient() (*board.Client, error) {
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, &reconcile.ConfigError{Reason: "board API key", Err: err}
	}
	return board.NewClient(cfg.Board.URL, key,
		board.WithPageSize(cfg.Board.PageSize),
		board.WithMaxRetries(cfg.Board.MaxRetries),
		board.WithRateLimit(cfg.Board.RequestsPerSecond),
		board.WithTimeout(cfg.Board.Timeout),
	), nil
}

func openSource(ctx context.Context) (factory.Source, error) {
	return factory.Open(ctx, cfg.SourceOptions())
}

// engineOptions resolves everything time-dependent against now, so a long
// running watch loop picks up a moving start_before.
func engineOptions(project string, now time.Time) (reconcile.Options, error) {
	sel, err := cfg.Selection(now)
	if err != nil {
		return reconcile.Options{}, &reconcile.ConfigError{Reason: "select.start_before", Err: err}
	}
	colors, err := cfg.ColorPicker()
	if err != nil {
		return reconcile.Options{}, &reconcile.ConfigError{Reason: "colors", Err: err}
	}
	dueSoon, err := cfg.DueSoonWindow(now)
	if err != nil {
		return reconcile.Options{}, &reconcile.ConfigError{Reason: "sync.due_soon", Err: err}
	}
	return reconcile.Options{
		Project:     project,
		Select:      sel.Filter(),
		Color:       colors,
		Owner:       cfg.Sync.Owner,
		DueSoon:     dueSoon,
		CallTimeout: cfg.Sync.CallTimeout,
		Logger:      debug.NewLogger(os.Stderr),
		RunID:       uuid.NewString(),
	}, nil
}

// projectRef is the --project flag, falling back to board.project.
func projectRef(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Board.Project
}

// passLockPath is the lock file serializing writing passes over the configured
// source: next to a file store, or in the user cache dir for a server.
func passLockPath() string {
	if cfg.Source.Driver != factory.DriverMySQL {
		return cfg.Source.Path + ".lock"
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(cfg.Source.DSN))
	return filepath.Join(dir, "pikpoint", "locks", fmt.Sprintf("mysql-%x.lock", h.Sum64()))
}
