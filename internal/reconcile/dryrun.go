package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/steveyegge/pikpoint/internal/types"
)

// PlannedAction is one write a dry run would have issued.
type PlannedAction struct {
	Kind   string `json:"kind"`   // e.g. "create_story", "set_task_completed"
	Target string `json:"target"` // the entity written to
	Detail string `json:"detail,omitempty"`
}

// Plan collects the writes of a dry run in the order they were issued.
type Plan struct {
	mu      sync.Mutex
	Actions []PlannedAction `json:"actions"`
	nextID  int64
}

func (pl *Plan) record(kind, target, detail string) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.Actions = append(pl.Actions, PlannedAction{Kind: kind, Target: target, Detail: detail})
}

// syntheticID hands out negative IDs for entities a dry run pretends to create.
func (pl *Plan) syntheticID() int64 {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.nextID--
	return pl.nextID
}

// Len returns the number of recorded actions.
func (pl *Plan) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.Actions)
}

// Markdown renders the plan as a markdown document.
func (pl *Plan) Markdown() string {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	var b strings.Builder
	b.WriteString("# Planned changes\n\n")
	if len(pl.Actions) == 0 {
		b.WriteString("Nothing to do, board and source are in sync.\n")
		return b.String()
	}
	b.WriteString("| # | action | target | detail |\n")
	b.WriteString("|---|---|---|---|\n")
	for i, a := range pl.Actions {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, a.Kind, a.Target, mdEscape(a.Detail))
	}
	return b.String()
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " / ")
}

// NewDryRun wraps a board and a source so that reads pass through and writes
// are only recorded in the returned plan.
func NewDryRun(board Board, src Source) (Board, Source, *Plan) {
	plan := &Plan{}
	return &dryBoard{Board: board, plan: plan}, &drySource{Source: src, plan: plan}, plan
}

type dryBoard struct {
	Board
	plan *Plan
}

func storyRef(id int64) string { return fmt.Sprintf("story %d", id) }

func (d *dryBoard) CreateStory(_ context.Context, _ int64, s types.Story) (types.Story, error) {
	s = s.Clone()
	s.ID = d.plan.syntheticID()
	for i := range s.Tasks {
		s.Tasks[i].ID = d.plan.syntheticID()
	}
	d.plan.record("create_story", storyRef(s.ID), fmt.Sprintf("%s (phase %s, %d tasks)", firstLine(s.Text), s.Phase.Name, len(s.Tasks)))
	return s, nil
}

func (d *dryBoard) UpdateStory(_ context.Context, _ int64, storyID int64, s types.Story) (types.Story, error) {
	d.plan.record("update_story", storyRef(storyID), fmt.Sprintf("%s (phase %s, color %s)", firstLine(s.Text), s.Phase.Name, s.Color))
	return s, nil
}

func (d *dryBoard) DeleteStory(_ context.Context, _ int64, storyID int64) error {
	d.plan.record("delete_story", storyRef(storyID), "")
	return nil
}

func (d *dryBoard) ReplaceTags(_ context.Context, _ int64, storyID int64, names []string) error {
	d.plan.record("replace_tags", storyRef(storyID), strings.Join(names, ", "))
	return nil
}

func (d *dryBoard) DeleteTag(_ context.Context, _ int64, tagID int64) error {
	d.plan.record("delete_tag", fmt.Sprintf("tag %d", tagID), "")
	return nil
}

func (d *dryBoard) CreateTask(_ context.Context, _ int64, storyID int64, t types.BoardTask) (types.BoardTask, error) {
	t.ID = d.plan.syntheticID()
	d.plan.record("create_task", storyRef(storyID), t.Text)
	return t, nil
}

func (d *dryBoard) UpdateTask(_ context.Context, _ int64, storyID int64, t types.BoardTask) (types.BoardTask, error) {
	d.plan.record("update_task", storyRef(storyID), fmt.Sprintf("%s (complete=%t)", t.Text, t.Complete))
	return t, nil
}

func (d *dryBoard) DeleteTask(_ context.Context, _ int64, storyID, taskID int64) error {
	d.plan.record("delete_task", storyRef(storyID), fmt.Sprintf("task %d", taskID))
	return nil
}

func (d *dryBoard) ReorderTasks(_ context.Context, _ int64, storyID int64, taskIDs []int64) ([]types.BoardTask, error) {
	d.plan.record("reorder_tasks", storyRef(storyID), fmt.Sprint(taskIDs))
	return nil, nil
}

type drySource struct {
	Source
	plan *Plan
}

func (d *drySource) SetProjectActive(_ context.Context, id string) error {
	d.plan.record("set_project_active", "project "+id, "")
	return nil
}

func (d *drySource) SetProjectCompleted(_ context.Context, id string) error {
	d.plan.record("set_project_completed", "project "+id, "")
	return nil
}

func (d *drySource) SetTaskCompleted(_ context.Context, taskID string) error {
	d.plan.record("set_task_completed", "task "+taskID, "")
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
