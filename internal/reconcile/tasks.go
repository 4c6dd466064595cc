package reconcile

import (
	"context"
	"slices"

	"github.com/steveyegge/pikpoint/internal/types"
)

// DedupFirstWins drops source tasks whose name repeats an earlier task's name.
// Task text is the only identity the two systems share, so a second task with
// the same name cannot be told apart from the first.
func DedupFirstWins(tasks []types.SourceTask) []types.SourceTask {
	seen := make(map[string]bool, len(tasks))
	out := make([]types.SourceTask, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return out
}

// desiredTask is one entry of the board task list a story should end up with.
type desiredTask struct {
	Text     string
	Complete bool
	Existing *types.BoardTask // nil when the task must be created
}

// taskPlan is the outcome of comparing a project's tasks with a story's tasks.
type taskPlan struct {
	Desired    []desiredTask
	Delete     []types.BoardTask
	Complete   []types.BoardTask  // board tasks to mark complete
	WriteBack  []types.SourceTask // source tasks to mark complete
	Unchanged  bool
	boardOrder []string
}

// planTasks keys both lists by text. Completed tasks survive on the board for
// one pass after either side completes them, then age out.
func planTasks(source []types.SourceTask, board []types.BoardTask) taskPlan {
	var plan taskPlan

	onBoard := make(map[string]*types.BoardTask, len(board))
	for i := range board {
		b := &board[i]
		if _, dup := onBoard[b.Text]; dup {
			plan.Delete = append(plan.Delete, *b)
			continue
		}
		onBoard[b.Text] = b
		plan.boardOrder = append(plan.boardOrder, b.Text)
	}

	wanted := make(map[string]bool)
	for _, s := range DedupFirstWins(source) {
		b := onBoard[s.Name]
		switch {
		case b == nil && !s.Completed:
			plan.Desired = append(plan.Desired, desiredTask{Text: s.Name})
		case b == nil:
			// completed and already gone from the board
		case !s.Completed:
			plan.Desired = append(plan.Desired, desiredTask{Text: s.Name, Complete: b.Complete, Existing: b})
			wanted[s.Name] = true
			if b.Complete {
				plan.WriteBack = append(plan.WriteBack, s)
			}
		case !b.Complete:
			plan.Desired = append(plan.Desired, desiredTask{Text: s.Name, Complete: true, Existing: b})
			wanted[s.Name] = true
			plan.Complete = append(plan.Complete, *b)
		}
	}

	var kept []string
	for _, text := range plan.boardOrder {
		if wanted[text] {
			kept = append(kept, text)
			continue
		}
		plan.Delete = append(plan.Delete, *onBoard[text])
	}

	// Created tasks are prepended one by one in reverse, so they end up in
	// desired order ahead of the surviving tasks.
	var predicted []string
	for _, d := range plan.Desired {
		if d.Existing == nil {
			predicted = append(predicted, d.Text)
		}
	}
	predicted = append(predicted, kept...)
	plan.Unchanged = slices.Equal(predicted, plan.desiredTexts())
	return plan
}

func (tp taskPlan) desiredTexts() []string {
	out := make([]string, 0, len(tp.Desired))
	for _, d := range tp.Desired {
		out = append(out, d.Text)
	}
	return out
}

// initialTasks is the task list of a story created from scratch.
func initialTasks(source []types.SourceTask) []types.BoardTask {
	plan := planTasks(source, nil)
	out := make([]types.BoardTask, 0, len(plan.Desired))
	for _, d := range plan.Desired {
		out = append(out, types.BoardTask{Text: d.Text})
	}
	return out
}

// reconcileTasks makes the story's task list match the project's and returns
// the project as seen after any task write-backs.
func (p *pass) reconcileTasks(ctx context.Context, story types.Story, proj types.SourceProject) (types.SourceProject, error) {
	plan := planTasks(proj.Tasks, story.Tasks)
	log := p.log.With("story", story.ID, "project", proj.ID)

	for _, s := range plan.WriteBack {
		log.Debug("completing source task", "task", s.ID, "name", s.Name)
		err := p.call(ctx, "source.set_task_completed", func(ctx context.Context) error {
			return p.source.SetTaskCompleted(ctx, s.ID)
		})
		if err != nil {
			return proj, err
		}
		proj = proj.WithTaskCompleted(s.ID)
		p.stats.TasksCompleted++
	}

	for _, t := range plan.Delete {
		log.Debug("deleting task", "task", t.ID, "text", t.Text)
		err := p.call(ctx, "board.delete_task", func(ctx context.Context) error {
			return p.board.DeleteTask(ctx, p.project.ID, story.ID, t.ID)
		})
		if err != nil {
			return proj, err
		}
		p.stats.TasksDeleted++
	}

	for _, t := range plan.Complete {
		log.Debug("completing task", "task", t.ID, "text", t.Text)
		done := t
		done.Complete = true
		err := p.call(ctx, "board.update_task", func(ctx context.Context) error {
			_, err := p.board.UpdateTask(ctx, p.project.ID, story.ID, done)
			return err
		})
		if err != nil {
			return proj, err
		}
		p.stats.TasksUpdated++
	}

	ids := make(map[string]int64, len(plan.Desired))
	for _, d := range plan.Desired {
		if d.Existing != nil {
			ids[d.Text] = d.Existing.ID
		}
	}
	for i := len(plan.Desired) - 1; i >= 0; i-- {
		d := plan.Desired[i]
		if d.Existing != nil {
			continue
		}
		log.Debug("creating task", "text", d.Text)
		var created types.BoardTask
		err := p.call(ctx, "board.create_task", func(ctx context.Context) error {
			var err error
			created, err = p.board.CreateTask(ctx, p.project.ID, story.ID, types.BoardTask{Text: d.Text})
			return err
		})
		if err != nil {
			return proj, err
		}
		ids[d.Text] = created.ID
		p.stats.TasksCreated++
	}

	if plan.Unchanged || len(plan.Desired) == 0 {
		return proj, nil
	}
	order := make([]int64, 0, len(plan.Desired))
	for _, d := range plan.Desired {
		order = append(order, ids[d.Text])
	}
	log.Debug("reordering tasks", "order", plan.desiredTexts())
	err := p.call(ctx, "board.reorder_tasks", func(ctx context.Context) error {
		_, err := p.board.ReorderTasks(ctx, p.project.ID, story.ID, order)
		return err
	})
	if err != nil {
		return proj, err
	}
	p.stats.TasksReordered++
	return proj, nil
}
