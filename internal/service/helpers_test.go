package service

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"exusiai.dev/stageflow/internal/model"
)

var epoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

type step struct {
	act string
	sec int
}

func at(act string, sec int) step { return step{act: act, sec: sec} }

func caseTrace(caseID string, steps ...step) []*model.Event {
	events := make([]*model.Event, len(steps))
	for i, s := range steps {
		events[i] = &model.Event{
			CaseID:    caseID,
			Activity:  s.act,
			Timestamp: epoch.Add(time.Duration(s.sec) * time.Second),
		}
	}
	return events
}

func logOf(traces ...[]*model.Event) *model.EventLog {
	var events []*model.Event
	for _, t := range traces {
		events = append(events, t...)
	}
	return model.NewEventLog("test", events)
}

// repeatingLog has two identical cases where A repeats with right-skewed positions.
func repeatingLog() *model.EventLog {
	steps := []step{at("A", 0), at("A", 10), at("B", 30), at("A", 60), at("C", 100)}
	return logOf(caseTrace("1", steps...), caseTrace("2", steps...))
}

func noopTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func newTestPipeline() *Pipeline {
	tracer := noopTracer()
	return NewPipeline(
		NewNormalizer(),
		NewCoalescer(NewClassifier()),
		NewStageAssigner(),
		NewCommunity(tracer),
		NewRanking(),
		NewRepresentative(),
		NewAssembler(),
		NewEvaluation(),
		tracer,
	)
}
