package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Stage identifies a phase of the scoring pipeline being traced.
type Stage string

const (
	// StageNetwork covers the network importance computation.
	StageNetwork Stage = "network"
	// StageActivity covers the decayed activity scoring.
	StageActivity Stage = "activity"
	// StageMomentum covers velocity and trend classification.
	StageMomentum Stage = "momentum"
	// StageRelevance covers query relevance scoring.
	StageRelevance Stage = "relevance"
	// StageAggregate covers the weighted aggregation and sort.
	StageAggregate Stage = "aggregate"
)

// StartScoringSpan creates a new span for a scoring pipeline stage.
// Returns the new context and a function to end the span.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartScoringSpan(ctx, tracing.StageNetwork, len(entities))
//	defer endSpan(err)
//	// ... compute stage ...
func StartScoringSpan(ctx context.Context, stage Stage, entityCount int) (context.Context, func(error)) {
	tracer := otel.Tracer("irisrank/rank")

	ctx, span := tracer.Start(ctx, "score "+string(stage),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("rank.stage", string(stage)),
			attribute.Int("rank.entity_count", entityCount),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartSpan creates a new span for a general operation.
// Returns the new context and a function to end the span.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartSpan(ctx, "batch_score")
//	defer endSpan(err)
//	// ... perform operation ...
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	tracer := otel.Tracer("irisrank")

	ctx, span := tracer.Start(ctx, name)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
