package reconcile

import "time"

// Stats counts the writes issued during one pass, per entity kind.
type Stats struct {
	StoriesCreated int `json:"stories_created"`
	StoriesUpdated int `json:"stories_updated"`
	StoriesDeleted int `json:"stories_deleted"`

	TasksCreated   int `json:"tasks_created"`
	TasksUpdated   int `json:"tasks_updated"`
	TasksDeleted   int `json:"tasks_deleted"`
	TasksReordered int `json:"tasks_reordered"` // reorder calls, one per story at most

	TagsReplaced int `json:"tags_replaced"`
	TagsPruned   int `json:"tags_pruned"`

	ProjectsActivated int `json:"projects_activated"` // source write-back: set active
	ProjectsCompleted int `json:"projects_completed"` // source write-back: set completed
	TasksCompleted    int `json:"tasks_completed"`    // source write-back: task completion

	Skipped int `json:"skipped"` // linked stories with nothing to change
}

// Writes is the total number of mutating calls against both systems.
func (s Stats) Writes() int {
	return s.StoriesCreated + s.StoriesUpdated + s.StoriesDeleted +
		s.TasksCreated + s.TasksUpdated + s.TasksDeleted + s.TasksReordered +
		s.TagsReplaced + s.TagsPruned +
		s.ProjectsActivated + s.ProjectsCompleted + s.TasksCompleted
}

// Result describes a finished (or aborted) pass.
type Result struct {
	RunID        string        `json:"run_id,omitempty"`
	BoardProject string        `json:"board_project"`
	Started      time.Time     `json:"started"`
	Duration     time.Duration `json:"duration"`
	Stats        Stats         `json:"stats"`
}

// Writes is shorthand for r.Stats.Writes().
func (r *Result) Writes() int { return r.Stats.Writes() }
