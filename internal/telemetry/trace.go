package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/agentplan/internal/errors"
	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

const instrumentationName = "github.com/felixgeelhaar/agentplan"

// StartCommandSpan creates a span for a CLI command execution.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "generate")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "command."+cmdName)

	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)

	return ctx, span
}

// StartGenerateSpan creates a span around one plan generation, tagged with
// the normalized options.
func StartGenerateSpan(ctx context.Context, source string, opts types.Options) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "plan.generate")

	opts = opts.Normalize()
	span.SetAttributes(
		attribute.String("component", source),
		attribute.Int("plan.breadth", opts.Breadth),
		attribute.Int("plan.depth", opts.Depth),
		attribute.Int("plan.departments", opts.DepartmentsCount),
		attribute.Bool("plan.include_qa", opts.IncludeQA),
		attribute.Int("plan.atomic_target_mins", opts.AtomicTargetMins),
	)

	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records err on the span and sets error status. Coded errors
// also carry their code.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, errors.MessageOf(err))
	if code := errors.CodeOf(err); code != "" {
		span.SetAttributes(attribute.String("error.code", string(code)))
	}
}

// RecordDuration records the duration of an operation in milliseconds
func RecordDuration(span trace.Span, name string, duration time.Duration) {
	span.SetAttributes(attribute.Int64(name+"_ms", duration.Milliseconds()))
}
