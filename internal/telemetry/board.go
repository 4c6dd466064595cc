package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

// InstrumentedBoard wraps a reconcile.Board with OTel tracing and metrics.
type InstrumentedBoard struct {
	inner reconcile.Board
	in    *instruments
}

var _ reconcile.Board = (*InstrumentedBoard)(nil)

func newBoard(b reconcile.Board, tracer trace.Tracer, m metric.Meter) *InstrumentedBoard {
	return &InstrumentedBoard{inner: b, in: newInstruments("board", tracer, m)}
}

func project(id int64) attribute.KeyValue { return attribute.Int64("pk.board.project", id) }
func story(id int64) attribute.KeyValue   { return attribute.Int64("pk.board.story", id) }

func (b *InstrumentedBoard) ResolveProject(ctx context.Context, idOrName string) (*types.BoardProject, error) {
	ctx, span, t, attrs := b.in.op(ctx, "ResolveProject", attribute.String("pk.board.project_ref", idOrName))
	v, err := b.inner.ResolveProject(ctx, idOrName)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) ListPhases(ctx context.Context, projectID int64) ([]types.Phase, error) {
	ctx, span, t, attrs := b.in.op(ctx, "ListPhases", project(projectID))
	v, err := b.inner.ListPhases(ctx, projectID)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) ListStories(ctx context.Context, projectID int64, q reconcile.StoryQuery) ([]types.Story, error) {
	ctx, span, t, attrs := b.in.op(ctx, "ListStories", project(projectID))
	v, err := b.inner.ListStories(ctx, projectID, q)
	if err == nil {
		span.SetAttributes(attribute.Int("pk.board.story_count", len(v)))
	}
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) CreateStory(ctx context.Context, projectID int64, s types.Story) (types.Story, error) {
	ctx, span, t, attrs := b.in.op(ctx, "CreateStory", project(projectID))
	v, err := b.inner.CreateStory(ctx, projectID, s)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) UpdateStory(ctx context.Context, projectID, storyID int64, s types.Story) (types.Story, error) {
	ctx, span, t, attrs := b.in.op(ctx, "UpdateStory", project(projectID), story(storyID))
	v, err := b.inner.UpdateStory(ctx, projectID, storyID, s)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) DeleteStory(ctx context.Context, projectID, storyID int64) error {
	ctx, span, t, attrs := b.in.op(ctx, "DeleteStory", project(projectID), story(storyID))
	err := b.inner.DeleteStory(ctx, projectID, storyID)
	b.in.done(ctx, span, t, err, attrs)
	return err
}

func (b *InstrumentedBoard) ReplaceTags(ctx context.Context, projectID, storyID int64, names []string) error {
	ctx, span, t, attrs := b.in.op(ctx, "ReplaceTags", project(projectID), story(storyID))
	err := b.inner.ReplaceTags(ctx, projectID, storyID, names)
	b.in.done(ctx, span, t, err, attrs)
	return err
}

func (b *InstrumentedBoard) ListTags(ctx context.Context, projectID int64) ([]types.Tag, error) {
	ctx, span, t, attrs := b.in.op(ctx, "ListTags", project(projectID))
	v, err := b.inner.ListTags(ctx, projectID)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) DeleteTag(ctx context.Context, projectID, tagID int64) error {
	ctx, span, t, attrs := b.in.op(ctx, "DeleteTag", project(projectID))
	err := b.inner.DeleteTag(ctx, projectID, tagID)
	b.in.done(ctx, span, t, err, attrs)
	return err
}

func (b *InstrumentedBoard) CreateTask(ctx context.Context, projectID, storyID int64, task types.BoardTask) (types.BoardTask, error) {
	ctx, span, t, attrs := b.in.op(ctx, "CreateTask", project(projectID), story(storyID))
	v, err := b.inner.CreateTask(ctx, projectID, storyID, task)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) UpdateTask(ctx context.Context, projectID, storyID int64, task types.BoardTask) (types.BoardTask, error) {
	ctx, span, t, attrs := b.in.op(ctx, "UpdateTask", project(projectID), story(storyID))
	v, err := b.inner.UpdateTask(ctx, projectID, storyID, task)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (b *InstrumentedBoard) DeleteTask(ctx context.Context, projectID, storyID, taskID int64) error {
	ctx, span, t, attrs := b.in.op(ctx, "DeleteTask", project(projectID), story(storyID))
	err := b.inner.DeleteTask(ctx, projectID, storyID, taskID)
	b.in.done(ctx, span, t, err, attrs)
	return err
}

func (b *InstrumentedBoard) ReorderTasks(ctx context.Context, projectID, storyID int64, taskIDs []int64) ([]types.BoardTask, error) {
	ctx, span, t, attrs := b.in.op(ctx, "ReorderTasks", project(projectID), story(storyID))
	v, err := b.inner.ReorderTasks(ctx, projectID, storyID, taskIDs)
	b.in.done(ctx, span, t, err, attrs)
	return v, err
}
