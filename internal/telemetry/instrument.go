package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/steveyegge/pikpoint/internal/reconcile"
)

const (
	boardScopeName  = "github.com/steveyegge/pikpoint/board"
	sourceScopeName = "github.com/steveyegge/pikpoint/source"
)

// instruments is shared by the board and source decorators. Every call gets a
// span and is counted in pk.<kind>.* metrics.
type instruments struct {
	kind   string
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

func newInstruments(kind string, tracer trace.Tracer, m metric.Meter) *instruments {
	ops, _ := m.Int64Counter("pk."+kind+".operations",
		metric.WithDescription("Total "+kind+" calls"),
	)
	dur, _ := m.Float64Histogram("pk."+kind+".operation.duration",
		metric.WithDescription(kind+" call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("pk."+kind+".errors",
		metric.WithDescription("Total failed "+kind+" calls"),
	)
	return &instruments{kind: kind, tracer: tracer, ops: ops, dur: dur, errs: errs}
}

func (in *instruments) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time, []attribute.KeyValue) {
	all := append([]attribute.KeyValue{attribute.String("pk.operation", name)}, attrs...)
	ctx, span := in.tracer.Start(ctx, in.kind+"."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	in.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now(), all
}

func (in *instruments) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs []attribute.KeyValue) {
	in.dur.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		in.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// WrapBoard returns b decorated with tracing and metrics, or b itself when
// telemetry is off.
func WrapBoard(b reconcile.Board) reconcile.Board {
	if !Enabled() {
		return b
	}
	return newBoard(b, Tracer(boardScopeName), Meter(boardScopeName))
}

// WrapSource is WrapBoard for the source of truth.
func WrapSource(s reconcile.Source) reconcile.Source {
	if !Enabled() {
		return s
	}
	return newSource(s, Tracer(sourceScopeName), Meter(sourceScopeName))
}
