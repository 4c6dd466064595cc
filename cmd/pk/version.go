package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is set with -ldflags at release time.
	Version = "0.1.0"
	// Build is the short commit hash, also set with -ldflags.
	Build = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{"version": Version, "build": Build, "go": runtime.Version()})
		}
		fmt.Fprintf(out, "pk version %s (%s)\n", Version, Build)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
