package reconcile

import (
	"context"

	"github.com/steveyegge/pikpoint/internal/types"
)

// Source is the source-of-truth task manager as seen by the engine.
// Reads must reflect live values. The three setters are idempotent: setting an
// already-active project active again is a no-op.
type Source interface {
	// ListProjects returns every project accepted by filter, in the source's
	// natural order. A nil filter selects everything. Tasks may be left empty;
	// the engine loads them with ListTasks.
	ListProjects(ctx context.Context, filter types.ProjectFilter) ([]types.SourceProject, error)

	// GetProject returns a single project, or nil, nil if it doesn't exist.
	GetProject(ctx context.Context, id string) (*types.SourceProject, error)

	// ListTasks returns the ordered tasks of a project, completed ones included.
	ListTasks(ctx context.Context, projectID string) ([]types.SourceTask, error)

	SetProjectActive(ctx context.Context, id string) error

	// SetProjectCompleted marks a project completed. A completed project is no
	// longer on hold.
	SetProjectCompleted(ctx context.Context, id string) error
	SetTaskCompleted(ctx context.Context, taskID string) error
}

// StoryQuery selects the enrichments returned by Board.ListStories.
type StoryQuery struct {
	WithTags  bool
	WithTasks bool
}

// Board is the Kanban system as seen by the engine. Pagination, authentication
// and retries belong to the implementation; every call either fully succeeds or
// returns an error.
type Board interface {
	// ResolveProject finds a project by numeric ID or by exact name. It returns an
	// error wrapping types.ErrProjectNotFound or types.ErrAmbiguousProject when
	// the reference cannot be resolved to exactly one project.
	ResolveProject(ctx context.Context, idOrName string) (*types.BoardProject, error)

	ListPhases(ctx context.Context, projectID int64) ([]types.Phase, error)
	ListStories(ctx context.Context, projectID int64, q StoryQuery) ([]types.Story, error)

	// CreateStory creates a story and returns it with server-assigned IDs.
	CreateStory(ctx context.Context, projectID int64, s types.Story) (types.Story, error)
	UpdateStory(ctx context.Context, projectID, storyID int64, s types.Story) (types.Story, error)

	// DeleteStory deletes a story together with its tags and tasks.
	DeleteStory(ctx context.Context, projectID, storyID int64) error

	// ReplaceTags sets the story's tags to exactly names, creating project tags as needed.
	ReplaceTags(ctx context.Context, projectID, storyID int64, names []string) error
	ListTags(ctx context.Context, projectID int64) ([]types.Tag, error)
	DeleteTag(ctx context.Context, projectID, tagID int64) error

	// CreateTask adds a task; the board prepends it to the story's task list.
	CreateTask(ctx context.Context, projectID, storyID int64, t types.BoardTask) (types.BoardTask, error)
	UpdateTask(ctx context.Context, projectID, storyID int64, t types.BoardTask) (types.BoardTask, error)
	DeleteTask(ctx context.Context, projectID, storyID, taskID int64) error

	// ReorderTasks replaces the story's task order with taskIDs.
	ReorderTasks(ctx context.Context, projectID, storyID int64, taskIDs []int64) ([]types.BoardTask, error)
}

// ColorPicker classifies a source project into a story color.
type ColorPicker func(*types.SourceProject) types.Color
