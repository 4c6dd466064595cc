package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/ui"
)

var phasesProject string

var phasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "List board phases and the role each plays in a sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBoardClient()
		if err != nil {
			return err
		}
		ref := projectRef(phasesProject)
		if ref == "" {
			return &reconcile.ConfigError{Reason: "no board project given (use --project or board.project)"}
		}
		project, err := client.ResolveProject(rootCtx, ref)
		if err != nil {
			return &reconcile.ConfigError{Reason: fmt.Sprintf("board project %q", ref), Err: err}
		}
		phases, err := client.ListPhases(rootCtx, project.ID)
		if err != nil {
			return err
		}
		set, err := reconcile.ParsePhases(phases)
		if err != nil {
			return err
		}

		type row struct {
			ID    int64  `json:"id"`
			Index int    `json:"index"`
			Name  string `json:"name"`
			Role  string `json:"role"`
		}
		var rows []row
		for _, p := range set.All() {
			rows = append(rows, row{ID: p.ID, Index: p.Index, Name: p.Name, Role: set.Classify(p).String()})
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		fmt.Fprintf(out, "%s %s\n", ui.RenderCategory("phases of"), ui.RenderAccent(project.Name))
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			table = append(table, []string{strconv.FormatInt(r.ID, 10), strconv.Itoa(r.Index), r.Name, r.Role})
		}
		fmt.Fprintln(out, ui.Table([]string{"ID", "INDEX", "NAME", "ROLE"}, table))
		return nil
	},
}

func init() {
	phasesCmd.Flags().StringVarP(&phasesProject, "project", "p", "", "board project id or name (overrides board.project)")
	rootCmd.AddCommand(phasesCmd)
}
