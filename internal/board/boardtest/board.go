// Package boardtest provides an in-memory Kanban board for tests, plus an
// httptest server that exposes it over the board REST layout.
package boardtest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

// DefaultPhases is a six-column workflow: two in-progress phases between
// ready and done.
func DefaultPhases() []types.Phase {
	return []types.Phase{
		{ID: 10, Name: "Backlog", Index: 0},
		{ID: 11, Name: "Ready", Index: 1},
		{ID: 12, Name: "Working", Index: 2},
		{ID: 13, Name: "Review", Index: 3},
		{ID: 14, Name: "Done", Index: 4},
		{ID: 15, Name: "Archive", Index: 5},
	}
}

type project struct {
	info    types.BoardProject
	phases  []types.Phase
	stories []types.Story
	tags    []types.Tag
}

// Board is an in-memory board. Created tasks are prepended to a story's task
// list, like the real service does. It is safe for concurrent use.
type Board struct {
	mu       sync.Mutex
	projects []*project
	nextID   int64
	calls    map[string]int

	// Fail makes the named operation (e.g. "create_story") return the error.
	Fail map[string]error
}

var writeOps = map[string]bool{
	"create_story": true, "update_story": true, "delete_story": true,
	"replace_tags": true, "delete_tag": true,
	"create_task": true, "update_task": true, "delete_task": true, "reorder_tasks": true,
}

// New creates an empty board.
func New() *Board {
	return &Board{nextID: 1000, calls: make(map[string]int), Fail: make(map[string]error)}
}

// AddProject creates a project with the given phases and returns its ID.
func (b *Board) AddProject(name string, phases []types.Phase) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.id()
	b.projects = append(b.projects, &project{
		info:   types.BoardProject{ID: id, Name: name},
		phases: append([]types.Phase(nil), phases...),
	})
	return id
}

// Seed stores a story as-is (tags are created by name) and returns its ID.
func (b *Board) Seed(projectID int64, s types.Story) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.mustProject(projectID)
	s = s.Clone()
	s.ID = b.id()
	for i := range s.Tasks {
		s.Tasks[i].ID = b.id()
	}
	var tags []types.Tag
	for _, t := range s.Tags {
		tags = append(tags, b.tag(p, t.Name))
	}
	s.Tags = tags
	p.stories = append(p.stories, s)
	return s.ID
}

// SeedTag creates a project-level tag nobody uses.
func (b *Board) SeedTag(projectID int64, name string) types.Tag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tag(b.mustProject(projectID), name)
}

// Stories returns copies of a project's stories in board order.
func (b *Board) Stories(projectID int64) []types.Story {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.mustProject(projectID)
	out := make([]types.Story, 0, len(p.stories))
	for _, s := range p.stories {
		out = append(out, s.Clone())
	}
	return out
}

// Story returns one story, or false if it does not exist.
func (b *Board) Story(projectID, storyID int64) (types.Story, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.mustProject(projectID)
	if i := p.storyIndex(storyID); i >= 0 {
		return p.stories[i].Clone(), true
	}
	return types.Story{}, false
}

// Tags returns the project-level tags.
func (b *Board) Tags(projectID int64) []types.Tag {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Tag(nil), b.mustProject(projectID).tags...)
}

// Calls returns how many times op was called.
func (b *Board) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// Writes returns the number of mutating calls made so far.
func (b *Board) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for op, c := range b.calls {
		if writeOps[op] {
			n += c
		}
	}
	return n
}

// ResetCalls clears the call counters.
func (b *Board) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = make(map[string]int)
}

func (b *Board) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *Board) enter(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.calls[op]++
	if err := b.Fail[op]; err != nil {
		return err
	}
	return nil
}

func (b *Board) mustProject(id int64) *project {
	p := b.project(id)
	if p == nil {
		panic(fmt.Sprintf("boardtest: no project %d", id))
	}
	return p
}

func (b *Board) project(id int64) *project {
	for _, p := range b.projects {
		if p.info.ID == id {
			return p
		}
	}
	return nil
}

func (b *Board) lookup(id int64) (*project, error) {
	p := b.project(id)
	if p == nil {
		return nil, fmt.Errorf("project %d: %w", id, types.ErrProjectNotFound)
	}
	return p, nil
}

func (p *project) storyIndex(id int64) int {
	for i := range p.stories {
		if p.stories[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) tag(p *project, name string) types.Tag {
	for _, t := range p.tags {
		if t.Name == name {
			return t
		}
	}
	t := types.Tag{ID: b.id(), Name: name}
	p.tags = append(p.tags, t)
	return t
}

func (b *Board) ResolveProject(ctx context.Context, idOrName string) (*types.BoardProject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "resolve_project"); err != nil {
		return nil, err
	}
	if id, err := strconv.ParseInt(idOrName, 10, 64); err == nil {
		if p := b.project(id); p != nil {
			info := p.info
			return &info, nil
		}
	}
	var found []types.BoardProject
	for _, p := range b.projects {
		if p.info.Name == idOrName {
			found = append(found, p.info)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%q: %w", idOrName, types.ErrProjectNotFound)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d projects: %w", idOrName, len(found), types.ErrAmbiguousProject)
	}
}

func (b *Board) ListPhases(ctx context.Context, projectID int64) ([]types.Phase, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "list_phases"); err != nil {
		return nil, err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return nil, err
	}
	return append([]types.Phase(nil), p.phases...), nil
}

func (b *Board) ListStories(ctx context.Context, projectID int64, q reconcile.StoryQuery) ([]types.Story, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "list_stories"); err != nil {
		return nil, err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return nil, err
	}
	out := make([]types.Story, 0, len(p.stories))
	for _, s := range p.stories {
		s = s.Clone()
		if !q.WithTags {
			s.Tags = nil
		}
		if !q.WithTasks {
			s.Tasks = nil
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *Board) phase(p *project, ph types.Phase) (types.Phase, error) {
	for _, q := range p.phases {
		if q.ID == ph.ID {
			return q, nil
		}
	}
	return types.Phase{}, fmt.Errorf("unknown phase %d", ph.ID)
}

func (b *Board) CreateStory(ctx context.Context, projectID int64, s types.Story) (types.Story, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "create_story"); err != nil {
		return types.Story{}, err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return types.Story{}, err
	}
	if s.Phase, err = b.phase(p, s.Phase); err != nil {
		return types.Story{}, err
	}
	s = s.Clone()
	s.ID = b.id()
	s.Tags = nil
	now := time.Now().UTC()
	for i := range s.Tasks {
		s.Tasks[i].ID = b.id()
		s.Tasks[i].CreateTime = &now
	}
	p.stories = append(p.stories, s)
	return s.Clone(), nil
}

func (b *Board) UpdateStory(ctx context.Context, projectID, storyID int64, s types.Story) (types.Story, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "update_story"); err != nil {
		return types.Story{}, err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return types.Story{}, err
	}
	i := p.storyIndex(storyID)
	if i < 0 {
		return types.Story{}, fmt.Errorf("story %d not found", storyID)
	}
	phase, err := b.phase(p, s.Phase)
	if err != nil {
		return types.Story{}, err
	}
	// Tags and tasks have their own endpoints.
	updated := p.stories[i].
		WithText(s.Text).
		WithDetails(s.Details).
		WithColor(s.Color).
		WithPhase(phase).
		WithOwner(s.Owner)
	updated.Size, updated.Priority = s.Size, s.Priority
	p.stories[i] = updated
	return updated.Clone(), nil
}

func (b *Board) DeleteStory(ctx context.Context, projectID, storyID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "delete_story"); err != nil {
		return err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return err
	}
	i := p.storyIndex(storyID)
	if i < 0 {
		return fmt.Errorf("story %d not found", storyID)
	}
	p.stories = append(p.stories[:i], p.stories[i+1:]...)
	return nil
}

func (b *Board) ReplaceTags(ctx context.Context, projectID, storyID int64, names []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "replace_tags"); err != nil {
		return err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return err
	}
	i := p.storyIndex(storyID)
	if i < 0 {
		return fmt.Errorf("story %d not found", storyID)
	}
	tags := make([]types.Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, b.tag(p, n))
	}
	p.stories[i] = p.stories[i].WithTags(tags)
	return nil
}

func (b *Board) ListTags(ctx context.Context, projectID int64) ([]types.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "list_tags"); err != nil {
		return nil, err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return nil, err
	}
	return append([]types.Tag(nil), p.tags...), nil
}

func (b *Board) DeleteTag(ctx context.Context, projectID, tagID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enter(ctx, "delete_tag"); err != nil {
		return err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return err
	}
	for i, t := range p.tags {
		if t.ID != tagID {
			continue
		}
		p.tags = append(p.tags[:i], p.tags[i+1:]...)
		for j := range p.stories {
			var kept []types.Tag
			for _, st := range p.stories[j].Tags {
				if st.ID != tagID {
					kept = append(kept, st)
				}
			}
			p.stories[j] = p.stories[j].WithTags(kept)
		}
		return nil
	}
	return fmt.Errorf("tag %d not found", tagID)
}

func (b *Board) storyTasks(ctx context.Context, op string, projectID, storyID int64) (*project, int, error) {
	if err := b.enter(ctx, op); err != nil {
		return nil, 0, err
	}
	p, err := b.lookup(projectID)
	if err != nil {
		return nil, 0, err
	}
	i := p.storyIndex(storyID)
	if i < 0 {
		return nil, 0, fmt.Errorf("story %d not found", storyID)
	}
	return p, i, nil
}

func (b *Board) CreateTask(ctx context.Context, projectID, storyID int64, t types.BoardTask) (types.BoardTask, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, err := b.storyTasks(ctx, "create_task", projectID, storyID)
	if err != nil {
		return types.BoardTask{}, err
	}
	now := time.Now().UTC()
	t.ID = b.id()
	t.CreateTime = &now
	tasks := append([]types.BoardTask{t}, p.stories[i].Tasks...)
	p.stories[i] = p.stories[i].WithTasks(tasks)
	return t, nil
}

func (b *Board) UpdateTask(ctx context.Context, projectID, storyID int64, t types.BoardTask) (types.BoardTask, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, err := b.storyTasks(ctx, "update_task", projectID, storyID)
	if err != nil {
		return types.BoardTask{}, err
	}
	tasks := p.stories[i].WithTasks(p.stories[i].Tasks).Tasks
	for j := range tasks {
		if tasks[j].ID != t.ID {
			continue
		}
		tasks[j].Text = t.Text
		if t.Complete && !tasks[j].Complete {
			now := time.Now().UTC()
			tasks[j].FinishTime = &now
		}
		tasks[j].Complete = t.Complete
		p.stories[i] = p.stories[i].WithTasks(tasks)
		return tasks[j], nil
	}
	return types.BoardTask{}, fmt.Errorf("task %d not found", t.ID)
}

func (b *Board) DeleteTask(ctx context.Context, projectID, storyID, taskID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, err := b.storyTasks(ctx, "delete_task", projectID, storyID)
	if err != nil {
		return err
	}
	var kept []types.BoardTask
	found := false
	for _, t := range p.stories[i].Tasks {
		if t.ID == taskID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return fmt.Errorf("task %d not found", taskID)
	}
	p.stories[i] = p.stories[i].WithTasks(kept)
	return nil
}

func (b *Board) ReorderTasks(ctx context.Context, projectID, storyID int64, taskIDs []int64) ([]types.BoardTask, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, i, err := b.storyTasks(ctx, "reorder_tasks", projectID, storyID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]types.BoardTask, len(p.stories[i].Tasks))
	for _, t := range p.stories[i].Tasks {
		byID[t.ID] = t
	}
	if len(taskIDs) != len(byID) {
		return nil, fmt.Errorf("reorder lists %d tasks, story has %d", len(taskIDs), len(byID))
	}
	ordered := make([]types.BoardTask, 0, len(taskIDs))
	var missing []string
	for _, id := range taskIDs {
		t, ok := byID[id]
		if !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
			continue
		}
		ordered = append(ordered, t)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unknown task ids %s", strings.Join(missing, ","))
	}
	p.stories[i] = p.stories[i].WithTasks(ordered)
	return append([]types.BoardTask(nil), ordered...), nil
}

var _ reconcile.Board = (*Board)(nil)
