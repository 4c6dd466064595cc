// Package debug holds the process-wide verbosity switches and builds the
// structured logger handed to the sync engine.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	enabled     = os.Getenv("PIKPOINT_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	mu          sync.Mutex
)

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled || verboseMode
}

// SetVerbose enables debug-level logging
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = verbose
}

// SetQuiet limits logging to warnings and suppresses normal output
func SetQuiet(quiet bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = quiet
}

func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

// Level returns the slog level selected by the switches. Debug wins over quiet.
func Level() slog.Level {
	switch {
	case Enabled():
		return slog.LevelDebug
	case IsQuiet():
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger writing to w at Level().
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level()}))
}

// Logf writes to stderr when debugging is enabled.
func Logf(format string, args ...any) {
	if Enabled() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// PrintNormal prints to w unless quiet mode is enabled.
func PrintNormal(w io.Writer, format string, args ...any) {
	if !IsQuiet() {
		fmt.Fprintf(w, format, args...)
	}
}
