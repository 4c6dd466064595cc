package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
	"github.com/steveyegge/pikpoint/internal/ui"
)

var projectsAll bool

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List source projects with their selection verdict, color and tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := openSource(rootCtx)
		if err != nil {
			return err
		}
		defer src.Close()

		sel, err := cfg.Selection(time.Now())
		if err != nil {
			return &reconcile.ConfigError{Reason: "select.start_before", Err: err}
		}
		colors, err := cfg.ColorPicker()
		if err != nil {
			return &reconcile.ConfigError{Reason: "colors", Err: err}
		}
		projects, err := src.ListProjects(rootCtx, nil)
		if err != nil {
			return err
		}

		type row struct {
			ID       string   `json:"id"`
			Name     string   `json:"name"`
			Status   string   `json:"status"`
			Selected bool     `json:"selected"`
			Reason   string   `json:"reason,omitempty"`
			Color    string   `json:"color"`
			Tags     []string `json:"tags"`
		}
		var rows []row
		for i := range projects {
			p := &projects[i]
			reason := sel.Explain(p)
			if reason != "" && !projectsAll {
				continue
			}
			status := string(p.Status)
			if p.Completed {
				status += ", completed"
			}
			rows = append(rows, row{
				ID: p.ID, Name: p.Name, Status: status,
				Selected: reason == "", Reason: reason,
				Color: string(colors(p)), Tags: reconcile.TagsFor(p),
			})
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, ui.RenderMuted("no projects selected"))
			return nil
		}
		table := make([][]string, 0, len(rows))
		for _, r := range rows {
			verdict := ui.RenderPass(ui.IconPass)
			if !r.Selected {
				verdict = ui.RenderMuted(ui.IconSkip + " " + r.Reason)
			}
			table = append(table, []string{verdict, r.ID, r.Name, r.Status, ui.RenderStoryColor(types.Color(r.Color)), strings.Join(r.Tags, ", ")})
		}
		fmt.Fprintln(out, ui.Table([]string{"", "ID", "NAME", "STATUS", "COLOR", "TAGS"}, table))
		return nil
	},
}

func init() {
	projectsCmd.Flags().BoolVarP(&projectsAll, "all", "a", false, "include projects that are not selected")
	rootCmd.AddCommand(projectsCmd)
}
