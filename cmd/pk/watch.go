package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/pikpoint/internal/debug"
	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/ui"
)

// debounceDelay collapses the burst of events an editor save produces.
const debounceDelay = 500 * time.Millisecond

type watchOptions struct {
	Interval time.Duration
	// Path is the source file; Watched says whether to watch it at all (a
	// database server has no file).
	Path    string
	Watched bool
	Run     func(context.Context) error
}

// watch runs a pass immediately, then after every change to the source file
// and every interval, until ctx is canceled. Transport errors are reported and
// retried on the next trigger; configuration errors stop the loop.
func watch(ctx context.Context, opts watchOptions) error {
	if opts.Interval <= 0 {
		return &reconcile.ConfigError{Reason: fmt.Sprintf("watch interval must be positive, got %s", opts.Interval)}
	}
	g, ctx := errgroup.WithContext(ctx)
	triggers := make(chan string, 1)

	trigger := func(reason string) {
		select {
		case triggers <- reason:
		default: // a pass is already pending
		}
	}

	if opts.Watched && opts.Path != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		defer w.Close()
		// Watch the directory: atomic saves replace the file.
		if err := w.Add(filepath.Dir(absPath(opts.Path))); err != nil {
			return fmt.Errorf("failed to watch %s: %w", opts.Path, err)
		}
		g.Go(func() error { return watchFile(ctx, w, absPath(opts.Path), trigger) })
	}

	g.Go(func() error {
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				trigger("interval")
			}
		}
	})

	g.Go(func() error {
		trigger("start")
		for {
			select {
			case <-ctx.Done():
				return nil
			case reason := <-triggers:
				debug.Logf("pass triggered by %s\n", reason)
				err := opts.Run(ctx)
				switch {
				case err == nil:
				case errors.Is(err, reconcile.ErrConfiguration):
					return err
				case ctx.Err() != nil:
					return nil
				default:
					fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderWarn("pass failed, will retry:"), err)
				}
			}
		}
	})

	return g.Wait()
}

func watchFile(ctx context.Context, w *fsnotify.Watcher, path string, trigger func(string)) error {
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if absPath(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Our own write-backs land here too; the pass they trigger has
			// nothing left to do.
			debounce = time.After(debounceDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			debug.Logf("watcher error: %v\n", err)
		case <-debounce:
			debounce = nil
			trigger("source change")
		}
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
