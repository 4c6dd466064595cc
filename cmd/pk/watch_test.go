package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/steveyegge/pikpoint/internal/reconcile"
)

func TestWatchStopsOnConfigError(t *testing.T) {
	var runs atomic.Int32
	err := watch(context.Background(), watchOptions{
		Interval: time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return &reconcile.ConfigError{Reason: "board project \"x\""}
		},
	})
	require.ErrorIs(t, err, reconcile.ErrConfiguration)
	require.Equal(t, int32(1), runs.Load())
}

func TestWatchRejectsNonPositiveInterval(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		var runs atomic.Int32
		err := watch(context.Background(), watchOptions{
			Interval: d,
			Run: func(context.Context) error {
				runs.Add(1)
				return nil
			},
		})
		require.ErrorIs(t, err, reconcile.ErrConfiguration, "interval %s", d)
		require.Zero(t, runs.Load())
	}
}

func TestWatchRetriesTransportErrors(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var runs atomic.Int32
	err := watch(ctx, watchOptions{
		Interval: 5 * time.Millisecond,
		Run: func(context.Context) error {
			if runs.Add(1) >= 3 {
				cancel()
				return nil
			}
			return &reconcile.TransportError{Op: "board.list_stories", Err: errors.New("503")}
		},
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, runs.Load(), int32(3))
}

func TestWatchRunsOnSourceChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projects: []\n"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, watchOptions{
			Interval: time.Hour,
			Path:     path,
			Watched:  true,
			Run: func(context.Context) error {
				if runs.Add(1) == 2 {
					cancel()
				}
				return nil
			},
		})
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "unrelated.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("projects:\n  - id: A\n    name: A\n    status: active\n"), 0o600))

	require.NoError(t, <-done)
	require.Equal(t, int32(2), runs.Load())
}
