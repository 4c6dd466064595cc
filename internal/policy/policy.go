// Package policy builds the project selector and the story color picker from
// configuration.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

// Selection decides which source projects take part in a pass.
type Selection struct {
	SkipStatuses          []types.ProjectStatus
	SkipSingleActionLists bool
	// StartBefore skips projects whose start date is after it. Zero disables the check.
	StartBefore time.Time
}

// Filter returns the predicate handed to the engine.
func (s Selection) Filter() types.ProjectFilter {
	skip := s.skipSet()
	return func(p *types.SourceProject) bool {
		return s.verdict(p, skip) == ""
	}
}

// Explain returns why p is not selected, or "" if it is.
func (s Selection) Explain(p *types.SourceProject) string {
	return s.verdict(p, s.skipSet())
}

func (s Selection) skipSet() map[types.ProjectStatus]bool {
	skip := make(map[types.ProjectStatus]bool, len(s.SkipStatuses))
	for _, st := range s.SkipStatuses {
		skip[st] = true
	}
	return skip
}

func (s Selection) verdict(p *types.SourceProject, skip map[types.ProjectStatus]bool) string {
	switch {
	case skip[p.Status]:
		return "status " + string(p.Status)
	case s.SkipSingleActionLists && p.SingleActionList:
		return "single action list"
	case !s.StartBefore.IsZero() && p.StartDate != nil && p.StartDate.After(s.StartBefore):
		return "starts " + p.StartDate.Format("2006-01-02")
	}
	return ""
}

// ColorRule assigns Color to projects whose context or folder path starts
// with the given prefix. An empty prefix matches anything.
type ColorRule struct {
	ContextPrefix string      `mapstructure:"context_prefix" yaml:"context_prefix,omitempty"`
	FolderPrefix  string      `mapstructure:"folder_prefix" yaml:"folder_prefix,omitempty"`
	Color         types.Color `mapstructure:"color" yaml:"color"`
}

func (r ColorRule) matches(p *types.SourceProject) bool {
	return hasPathPrefix(p.ContextPath, r.ContextPrefix) && hasPathPrefix(p.FolderPath, r.FolderPrefix)
}

// hasPathPrefix matches whole path segments, case-insensitively, so "Work"
// matches "Work/Calls" but not "Workshop".
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	path, prefix = strings.ToLower(path), strings.ToLower(prefix)
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, ",")
}

// Colors validates rules and returns a picker that uses the first matching
// rule, falling back to def.
func Colors(def types.Color, rules []ColorRule) (reconcile.ColorPicker, error) {
	if def == "" {
		def = types.ColorGreen
	}
	if !def.IsValid() {
		return nil, fmt.Errorf("unknown default color %q", def)
	}
	for i, r := range rules {
		if !r.Color.IsValid() {
			return nil, fmt.Errorf("color rule %d: unknown color %q", i+1, r.Color)
		}
	}
	rules = append([]ColorRule(nil), rules...)
	return func(p *types.SourceProject) types.Color {
		for _, r := range rules {
			if r.matches(p) {
				return r.Color
			}
		}
		return def
	}, nil
}
