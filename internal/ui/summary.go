package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/steveyegge/pikpoint/internal/reconcile"
)

// RenderResult summarizes a finished pass.
func RenderResult(res *reconcile.Result) string {
	var b strings.Builder
	s := res.Stats
	icon := PassStyle.Render(IconPass)
	if res.Writes() == 0 {
		icon = MutedStyle.Render(IconSkip)
	}
	fmt.Fprintf(&b, "%s Synced %s in %s", icon, RenderAccent(res.BoardProject), res.Duration.Round(time.Millisecond))
	if res.RunID != "" {
		fmt.Fprintf(&b, " %s", RenderMuted("("+res.RunID+")"))
	}
	b.WriteString("\n")

	rows := []struct {
		label string
		n     int
	}{
		{"stories created", s.StoriesCreated},
		{"stories updated", s.StoriesUpdated},
		{"stories deleted", s.StoriesDeleted},
		{"tasks created", s.TasksCreated},
		{"tasks updated", s.TasksUpdated},
		{"tasks deleted", s.TasksDeleted},
		{"task lists reordered", s.TasksReordered},
		{"tag sets replaced", s.TagsReplaced},
		{"tags pruned", s.TagsPruned},
		{"projects reactivated", s.ProjectsActivated},
		{"projects completed", s.ProjectsCompleted},
		{"tasks completed in source", s.TasksCompleted},
	}
	for _, r := range rows {
		if r.n == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %3d %s\n", r.n, r.label)
	}
	if res.Writes() == 0 {
		fmt.Fprintf(&b, "  %s\n", RenderMuted("no changes"))
	}
	return b.String()
}

// Table renders rows under headers with the muted border used by every
// listing command.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}
