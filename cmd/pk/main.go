package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/pikpoint/internal/config"
	"github.com/steveyegge/pikpoint/internal/debug"
	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/telemetry"
	"github.com/steveyegge/pikpoint/internal/ui"
)

var (
	configPath  string
	verboseFlag bool
	quietFlag   bool
	jsonOutput  bool

	cfg *config.Config

	// Signal-aware context, canceled on SIGINT/SIGTERM
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// noConfigCommands run without loading configuration.
var noConfigCommands = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

var rootCmd = &cobra.Command{
	Use:           "pk",
	Short:         "pk - keep a Kanban board in step with your task manager",
	Long:          `pk mirrors the projects of a source-of-truth task manager onto the stories of a Kanban board, and writes board progress back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)

		if noConfigCommands[cmd.Name()] {
			return nil
		}
		if cmd == initCmd {
			cfg = config.Default()
			return nil
		}
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		debug.Logf("config: %q\n", cfg.File)
		return telemetry.Init(rootCtx, telemetry.Options{
			Enabled:      cfg.Telemetry.Enabled,
			Stdout:       cfg.Telemetry.Stdout,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			ServiceName:  "pk",
			Version:      Version,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		telemetry.Shutdown(ctx)
		if rootCancel != nil {
			rootCancel()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./.pikpoint.yaml, then the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "only warnings and errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func reportError(err error) {
	msg := err.Error()
	var te *reconcile.TransportError
	switch {
	case errors.Is(err, reconcile.ErrConfiguration):
		msg = "invalid setup: " + msg
	case errors.As(err, &te):
		msg = fmt.Sprintf("%s failed: %v (already applied changes are kept; the next run picks up from here)", te.Op, te.Err)
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ui.RenderFail("Error:"), msg)
}
