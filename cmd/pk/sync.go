package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/pikpoint/internal/debug"
	"github.com/steveyegge/pikpoint/internal/lockfile"
	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/source/factory"
	"github.com/steveyegge/pikpoint/internal/telemetry"
	"github.com/steveyegge/pikpoint/internal/ui"
)

var (
	syncProject  string
	syncDryRun   bool
	syncWatch    bool
	syncInterval time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a synchronization pass",
	Long: `Run one pass: create stories for new projects, update linked stories,
delete stories whose project is gone, and write board progress back to the
source. With --watch, keep running on source changes and on an interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncProject != "" {
			cfg.Board.Project = syncProject
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		client, err := newBoardClient()
		if err != nil {
			return err
		}
		src, err := openSource(rootCtx)
		if err != nil {
			return err
		}
		defer src.Close()

		b := telemetry.WrapBoard(client)
		s := telemetry.WrapSource(src)
		out := cmd.OutOrStdout()

		if !syncWatch {
			return runPass(rootCtx, out, b, s)
		}
		interval := cfg.Sync.Interval
		if cmd.Flags().Changed("interval") {
			if syncInterval <= 0 {
				return &reconcile.ConfigError{Reason: fmt.Sprintf("--interval must be positive, got %s", syncInterval)}
			}
			interval = syncInterval
		}
		return watch(rootCtx, watchOptions{
			Interval: interval,
			Path:     cfg.Source.Path,
			Watched:  cfg.Source.Driver != factory.DriverMySQL,
			Run:      func(ctx context.Context) error { return runPass(ctx, out, b, s) },
		})
	},
}

// runPass runs one pass and reports it. With --dry-run nothing is written and
// the plan is printed instead. Writing passes hold the source's pass lock.
func runPass(ctx context.Context, out io.Writer, b reconcile.Board, s reconcile.Source) error {
	opts, err := engineOptions(cfg.Board.Project, time.Now())
	if err != nil {
		return err
	}
	var plan *reconcile.Plan
	if syncDryRun {
		b, s, plan = reconcile.NewDryRun(b, s)
	} else {
		lock, err := lockfile.TryAcquire(passLockPath(), lockfile.Info{RunID: opts.RunID, Command: "pk sync"})
		if err != nil {
			return err
		}
		defer lock.Release()
	}
	res, runErr := reconcile.NewEngine(s, b, opts).Run(ctx)

	if jsonOutput {
		payload := struct {
			*reconcile.Result
			DryRun  bool                      `json:"dry_run,omitempty"`
			Actions []reconcile.PlannedAction `json:"actions,omitempty"`
			Error   string                    `json:"error,omitempty"`
		}{Result: res, DryRun: syncDryRun}
		if plan != nil {
			payload.Actions = plan.Actions
		}
		if runErr != nil {
			payload.Error = runErr.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
		return runErr
	}

	if runErr != nil {
		if res != nil && res.Writes() > 0 {
			debug.PrintNormal(out, "%s", ui.RenderResult(res))
		}
		return runErr
	}
	if plan != nil {
		fmt.Fprint(out, ui.RenderMarkdown(plan.Markdown()))
		return nil
	}
	debug.PrintNormal(out, "%s", ui.RenderResult(res))
	return nil
}

func init() {
	syncCmd.Flags().StringVarP(&syncProject, "project", "p", "", "board project id or name (overrides board.project)")
	syncCmd.Flags().BoolVarP(&syncDryRun, "dry-run", "n", false, "show what would change without writing")
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "keep running on source changes and on an interval")
	syncCmd.Flags().DurationVar(&syncInterval, "interval", 0, "watch interval (default sync.interval)")
	rootCmd.AddCommand(syncCmd)
}
