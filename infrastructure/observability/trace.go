package observability

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/maze-agent/domain/agent"
)

// Span names.
const (
	SpanRun  = "maze.run"
	SpanStep = "maze.step"
)

// Attribute keys.
const (
	AttrRunID      = attribute.Key("maze.run.id")
	AttrMapName    = attribute.Key("maze.map.name")
	AttrStatus     = attribute.Key("maze.run.status")
	AttrScore      = attribute.Key("maze.run.score")
	AttrAttempts   = attribute.Key("maze.run.attempts")
	AttrStep       = attribute.Key("maze.step.index")
	AttrSource     = attribute.Key("maze.step.source")
	AttrHeading    = attribute.Key("maze.step.heading")
	AttrMoved      = attribute.Key("maze.step.moved")
	AttrAte        = attribute.Key("maze.step.ate")
	AttrPosition   = attribute.Key("maze.step.position")
	AttrTarget     = attribute.Key("maze.plan.target")
	AttrPlanLength = attribute.Key("maze.plan.length")
	AttrCollected  = attribute.Key("maze.food.collected")
)

// StartRunSpan opens the root span of a run.
func StartRunSpan(ctx context.Context, tracer trace.Tracer, runID, mapName string) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrRunID.String(runID),
			AttrMapName.String(mapName),
		),
	)
}

// StartStepSpan opens a child span for the n-th step attempt.
func StartStepSpan(ctx context.Context, tracer trace.Tracer, n int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanStep, trace.WithAttributes(AttrStep.Int(n)))
}

// RecordStep annotates a step span with its outcome. Plan installs become
// span events.
func RecordStep(span trace.Span, res agent.StepResult) {
	span.SetAttributes(
		AttrSource.String(res.Source.String()),
		AttrHeading.String(res.Heading.String()),
		AttrMoved.Bool(res.Moved),
		AttrAte.Bool(res.Ate),
		AttrPosition.String(res.To.String()),
	)
	if d := res.Decision; d != nil {
		span.AddEvent("plan.installed", trace.WithAttributes(
			AttrTarget.String(d.Target.String()),
			AttrPlanLength.Int(len(d.Headings)),
		))
	}
}

// RecordRun annotates a run span with the final summary.
func RecordRun(span trace.Span, run *agent.Run) {
	span.SetAttributes(
		AttrStatus.String(run.Status.String()),
		AttrScore.Int(run.Score),
		AttrAttempts.Int(run.Attempts),
		AttrCollected.String(strconv.Itoa(run.Collected)+"/"+strconv.Itoa(run.TargetFood)),
	)
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
