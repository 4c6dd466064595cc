package ui

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		want       bool
		ttyDepends bool
	}{
		{name: "NO_COLOR disables", env: map[string]string{"NO_COLOR": "1"}, want: false},
		{name: "CLICOLOR=0 disables", env: map[string]string{"CLICOLOR": "0"}, want: false},
		{name: "CLICOLOR_FORCE enables", env: map[string]string{"CLICOLOR_FORCE": "1"}, want: true},
		{name: "NO_COLOR beats CLICOLOR_FORCE", env: map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, want: false},
		{name: "falls back to tty", env: map[string]string{}, ttyDepends: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// NO_COLOR disables color by merely being set, so clear it for real.
			for _, k := range []string{"NO_COLOR", "CLICOLOR", "CLICOLOR_FORCE"} {
				t.Setenv(k, "")
				_ = os.Unsetenv(k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got := ShouldUseColor()
			if !tt.ttyDepends && got != tt.want {
				t.Errorf("ShouldUseColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderMarkdownWithoutColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	md := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	if got := RenderMarkdown(md); got != md {
		t.Errorf("RenderMarkdown should pass markdown through when color is off, got %q", got)
	}
}

func TestRenderMarkdownWithColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	_ = os.Unsetenv("NO_COLOR")
	t.Setenv("CLICOLOR_FORCE", "1")
	md := "# Planned changes\n\nNothing to do.\n"
	got := RenderMarkdown(md)
	if got == md {
		t.Fatal("RenderMarkdown returned its input unchanged with color forced on")
	}
	if !strings.Contains(got, "Planned changes") || !strings.Contains(got, "Nothing to do.") {
		t.Errorf("rendered markdown lost text: %q", got)
	}
}

func TestMarkdownStyle(t *testing.T) {
	if got := markdownStyle(true); got != "dark" {
		t.Errorf("markdownStyle(dark) = %q", got)
	}
	if got := markdownStyle(false); got != "light" {
		t.Errorf("markdownStyle(light) = %q", got)
	}
}

func TestRenderResult(t *testing.T) {
	res := &reconcile.Result{
		RunID:        "run-1",
		BoardProject: "Personal",
		Duration:     1500 * time.Millisecond,
		Stats:        reconcile.Stats{StoriesCreated: 2, TasksCreated: 5},
	}
	out := RenderResult(res)
	for _, want := range []string{"Personal", "run-1", "2 stories created", "5 tasks created"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stories deleted") {
		t.Errorf("zero counters should be omitted:\n%s", out)
	}

	idle := RenderResult(&reconcile.Result{BoardProject: "Personal"})
	if !strings.Contains(idle, "no changes") {
		t.Errorf("idle pass should say no changes:\n%s", idle)
	}
}

func TestTableAndColors(t *testing.T) {
	out := Table([]string{"ID", "NAME"}, [][]string{{"10", "Backlog"}, {"11", "Ready"}})
	for _, want := range []string{"ID", "NAME", "Backlog", "Ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := RenderStoryColor(types.ColorTeal); !strings.Contains(got, "teal") {
		t.Errorf("RenderStoryColor(teal) = %q", got)
	}
	if got := RenderStoryColor("mauve"); got != "mauve" {
		t.Errorf("unknown color should render plainly, got %q", got)
	}
}
