package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/pikpoint/internal/reconcile"
	"github.com/steveyegge/pikpoint/internal/types"
)

// InstrumentedSource wraps a reconcile.Source with OTel tracing and metrics.
type InstrumentedSource struct {
	inner reconcile.Source
	in    *instruments
}

var _ reconcile.Source = (*InstrumentedSource)(nil)

func newSource(s reconcile.Source, tracer trace.Tracer, m metric.Meter) *InstrumentedSource {
	return &InstrumentedSource{inner: s, in: newInstruments("source", tracer, m)}
}

func sourceID(key, id string) attribute.KeyValue { return attribute.String("pk.source."+key, id) }

func (s *InstrumentedSource) ListProjects(ctx context.Context, filter types.ProjectFilter) ([]types.SourceProject, error) {
	ctx, span, t, attrs := s.in.op(ctx, "ListProjects")
	v, err := s.inner.ListProjects(ctx, filter)
	if err == nil {
		span.SetAttributes(attribute.Int("pk.source.project_count", len(v)))
	}
	s.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (s *InstrumentedSource) GetProject(ctx context.Context, id string) (*types.SourceProject, error) {
	ctx, span, t, attrs := s.in.op(ctx, "GetProject", sourceID("project", id))
	v, err := s.inner.GetProject(ctx, id)
	s.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (s *InstrumentedSource) ListTasks(ctx context.Context, projectID string) ([]types.SourceTask, error) {
	ctx, span, t, attrs := s.in.op(ctx, "ListTasks", sourceID("project", projectID))
	v, err := s.inner.ListTasks(ctx, projectID)
	s.in.done(ctx, span, t, err, attrs)
	return v, err
}

func (s *InstrumentedSource) SetProjectActive(ctx context.Context, id string) error {
	ctx, span, t, attrs := s.in.op(ctx, "SetProjectActive", sourceID("project", id))
	err := s.inner.SetProjectActive(ctx, id)
	s.in.done(ctx, span, t, err, attrs)
	return err
}

func (s *InstrumentedSource) SetProjectCompleted(ctx context.Context, id string) error {
	ctx, span, t, attrs := s.in.op(ctx, "SetProjectCompleted", sourceID("project", id))
	err := s.inner.SetProjectCompleted(ctx, id)
	s.in.done(ctx, span, t, err, attrs)
	return err
}

func (s *InstrumentedSource) SetTaskCompleted(ctx context.Context, taskID string) error {
	ctx, span, t, attrs := s.in.op(ctx, "SetTaskCompleted", sourceID("task", taskID))
	err := s.inner.SetTaskCompleted(ctx, taskID)
	s.in.done(ctx, span, t, err, attrs)
	return err
}
