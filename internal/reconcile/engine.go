// Package reconcile computes and applies one synchronization pass between a
// source-of-truth task manager and a Kanban board.
//
// A pass is stateless: identity is rebuilt from a fresh pair of snapshots every
// run, using the correlation token embedded in each story's details. Every
// pass runs sequentially so that source write-backs are visible to the reads
// that follow them.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/steveyegge/pikpoint/internal/types"
)

// DuplicateTokenPolicy decides which story owns a token carried by several.
type DuplicateTokenPolicy int

const (
	// FirstWins links the first story in board order; later stories with the
	// same token are left untouched.
	FirstWins DuplicateTokenPolicy = iota
)

// Options configures an Engine. Only Project is required.
type Options struct {
	// Project is the board project ID or exact name.
	Project string

	// Select filters source projects. Nil selects every project that isn't dropped.
	Select types.ProjectFilter

	// Color picks a story's color. Nil colors every story green.
	Color ColorPicker

	// Owner is the board user name assigned to every story. Empty leaves owners alone.
	Owner string

	// DueSoon is the window before a due date in which the story text says "due soon".
	DueSoon time.Duration

	// CallTimeout bounds every individual collaborator call. Zero means no deadline.
	CallTimeout time.Duration

	Now    func() time.Time
	Logger *slog.Logger
	RunID  string

	Duplicates DuplicateTokenPolicy
}

// Engine runs synchronization passes against one board project.
type Engine struct {
	Source Source
	Board  Board
	opts   Options
}

// NewEngine creates an engine, filling unset options with defaults.
func NewEngine(src Source, board Board, opts Options) *Engine {
	if opts.Select == nil {
		opts.Select = func(p *types.SourceProject) bool { return p.Status != types.StatusDropped }
	}
	if opts.Color == nil {
		opts.Color = func(*types.SourceProject) types.Color { return types.ColorGreen }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{Source: src, Board: board, opts: opts}
}

// pass holds everything owned by a single run.
type pass struct {
	source  Source
	board   Board
	opts    Options
	log     *slog.Logger
	now     time.Time
	project *types.BoardProject
	phases  *PhaseSet
	used    tagUsage
	stats   Stats
}

// call runs one collaborator call under the per-call deadline.
func (p *pass) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
		defer cancel()
	}
	return transportErr(op, fn(ctx))
}

// Run executes one pass. On error the returned Result still holds the writes
// committed before the failure.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	p := &pass{
		source: e.Source,
		board:  e.Board,
		opts:   e.opts,
		now:    e.opts.Now(),
		used:   make(tagUsage),
	}
	p.log = e.opts.Logger
	if e.opts.RunID != "" {
		p.log = p.log.With("run_id", e.opts.RunID)
	}
	result := &Result{RunID: e.opts.RunID, BoardProject: e.opts.Project, Started: p.now}

	err := p.run(ctx)
	result.Stats = p.stats
	result.Duration = e.opts.Now().Sub(p.now)
	if p.project != nil {
		result.BoardProject = p.project.Name
	}
	if err != nil {
		return result, err
	}
	p.log.Debug("pass complete", "writes", p.stats.Writes(), "duration", result.Duration)
	return result, nil
}

func (p *pass) run(ctx context.Context) error {
	if p.opts.Project == "" {
		return &ConfigError{Reason: "no board project configured"}
	}

	// 1. board project
	err := p.call(ctx, "board.resolve_project", func(ctx context.Context) error {
		var err error
		p.project, err = p.board.ResolveProject(ctx, p.opts.Project)
		return err
	})
	if err != nil {
		if errors.Is(err, types.ErrProjectNotFound) || errors.Is(err, types.ErrAmbiguousProject) {
			return &ConfigError{Reason: fmt.Sprintf("board project %q", p.opts.Project), Err: err}
		}
		return err
	}
	p.log = p.log.With("board_project", p.project.ID)

	// 2. phases
	var phases []types.Phase
	err = p.call(ctx, "board.list_phases", func(ctx context.Context) error {
		var err error
		phases, err = p.board.ListPhases(ctx, p.project.ID)
		return err
	})
	if err != nil {
		return err
	}
	if p.phases, err = ParsePhases(phases); err != nil {
		return err
	}

	// 3. snapshots
	var projects []types.SourceProject
	err = p.call(ctx, "source.list_projects", func(ctx context.Context) error {
		var err error
		projects, err = p.source.ListProjects(ctx, p.opts.Select)
		return err
	})
	if err != nil {
		return err
	}
	var stories []types.Story
	err = p.call(ctx, "board.list_stories", func(ctx context.Context) error {
		var err error
		stories, err = p.board.ListStories(ctx, p.project.ID, StoryQuery{WithTags: true, WithTasks: true})
		return err
	})
	if err != nil {
		return err
	}
	selected := make(map[string]bool, len(projects))
	for _, proj := range projects {
		selected[proj.ID] = true
	}
	p.log.Debug("loaded snapshots", "projects", len(projects), "stories", len(stories))

	// 4. unlinked stories
	linked := make(map[string]types.Story, len(stories))
	var order []string
	var orphans []types.Story
	for _, s := range stories {
		token, ok := ExtractToken(s.Details)
		if !ok {
			if err := p.deleteStory(ctx, s, "no correlation token"); err != nil {
				return err
			}
			continue
		}
		// 5. partition
		if _, dup := linked[token]; dup {
			p.log.Warn("story shares a correlation token with an earlier story, leaving it alone",
				"story", s.ID, "token", token)
			// Its tags are still referenced and must survive pruning.
			p.used.add(s.TagNames())
			continue
		}
		linked[token] = s
		if selected[token] {
			order = append(order, token)
		} else {
			orphans = append(orphans, s)
		}
	}
	for _, s := range orphans {
		if err := p.deleteStory(ctx, s, "source project not selected"); err != nil {
			return err
		}
	}

	// 6. new projects
	for _, proj := range projects {
		if _, ok := linked[proj.ID]; ok {
			continue
		}
		// A dropped project's story would be deleted again by step 7.
		if proj.Status == types.StatusDropped {
			p.log.Debug("not creating a story for a dropped project", "project", proj.ID)
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		tasks, err := p.listTasks(ctx, proj.ID)
		if err != nil {
			return err
		}
		if err := p.createStory(ctx, proj.WithTasks(tasks)); err != nil {
			return err
		}
	}

	// 7. linked stories, against live source reads
	for _, token := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		var live *types.SourceProject
		err := p.call(ctx, "source.get_project", func(ctx context.Context) error {
			var err error
			live, err = p.source.GetProject(ctx, token)
			return err
		})
		if err != nil {
			return err
		}
		if live != nil && live.Status != types.StatusDropped {
			tasks, err := p.listTasks(ctx, live.ID)
			if err != nil {
				return err
			}
			withTasks := live.WithTasks(tasks)
			live = &withTasks
		}
		if err := p.updateStory(ctx, linked[token], live); err != nil {
			return err
		}
	}

	// 8. tags nobody uses any more
	return p.pruneTags(ctx)
}

func (p *pass) listTasks(ctx context.Context, projectID string) ([]types.SourceTask, error) {
	var tasks []types.SourceTask
	err := p.call(ctx, "source.list_tasks", func(ctx context.Context) error {
		var err error
		tasks, err = p.source.ListTasks(ctx, projectID)
		return err
	})
	return tasks, err
}
