package operations

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"natgascli/internal/infrastructure"
)

// StageTracer wraps runs and stages in spans and records stage metrics
type StageTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewStageTracer creates a tracer; nil arguments disable the signal
func NewStageTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *StageTracer {
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	return &StageTracer{tracer: tracer, metrics: metrics}
}

// TraceRun starts the span covering a whole run
func (st *StageTracer) TraceRun(ctx context.Context, runID, selection string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "pipeline.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.stage", selection),
		),
	)
}

// TraceStage starts the span for one stage
func (st *StageTracer) TraceStage(ctx context.Context, runID, stageID string) (context.Context, trace.Span) {
	return st.tracer.Start(ctx, "pipeline.stage."+stageID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("stage.id", stageID),
		),
	)
}

// RecordStageCompletion ends the stage span and records metrics
func (st *StageTracer) RecordStageCompletion(ctx context.Context, span trace.Span, stageID string, status StepStatus, duration time.Duration, err error) {
	span.SetAttributes(
		attribute.String("stage.status", string(status)),
		attribute.Float64("stage.duration_seconds", duration.Seconds()),
	)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	st.metrics.RecordStage(ctx, stageID, string(status), duration)
}

// RecordRunCompletion ends the run span
func (st *StageTracer) RecordRunCompletion(ctx context.Context, span trace.Span, status RunStatus, err error) {
	span.SetAttributes(attribute.String("run.status", string(status)))
	if err != nil {
		infrastructure.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
