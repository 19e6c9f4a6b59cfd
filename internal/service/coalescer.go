package service

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/pkg/observability"
)

// Coalescer marks repeated occurrences of unstable activities as ignorable.
type Coalescer struct {
	Classifier *Classifier
}

func NewCoalescer(classifier *Classifier) *Coalescer {
	return &Coalescer{
		Classifier: classifier,
	}
}

// ResetIgnore clears every ignore flag of the log.
func (s *Coalescer) ResetIgnore(l *model.EventLog) {
	for _, ev := range l.Events {
		ev.Ignore = false
	}
}

// Mark flags occurrences of activities for removal: every occurrence but the
// first one of a case for CoalesceFirst, every one but the last for
// CoalesceLast. Flags are only ever set, never cleared, so marking twice is a
// no-op. It returns the number of newly flagged events.
func (s *Coalescer) Mark(l *model.EventLog, activities []string, class model.CoalescingClass) (int, error) {
	if !class.Valid() {
		return 0, flowerr.ErrInvalidConfig.Msg("coalescing type must be first or last, got %q", string(class))
	}

	targets := lo.SliceToMap(activities, func(act string) (string, struct{}) { return act, struct{}{} })
	marked := 0
	for _, ev := range l.Events {
		if _, ok := targets[ev.Activity]; !ok {
			continue
		}
		var redundant bool
		if class == model.CoalesceFirst {
			redundant = ev.Order > 0
		} else {
			redundant = ev.Order < ev.MaxOrder
		}
		if redundant && !ev.Ignore {
			ev.Ignore = true
			marked++
		}
	}
	observability.CoalescedEvents.WithLabelValues(string(class)).Add(float64(marked))
	return marked, nil
}

// Coalesce classifies the activities of a normalized log and marks their
// redundant occurrences. Ignored events are removed right away only when
// CoalesceDropEvents is set.
func (s *Coalescer) Coalesce(l *model.EventLog, opts *model.PipelineOptions) ([]model.ActivityStats, error) {
	stats := s.Classifier.Classify(l, opts)

	if opts.CoalesceResetIgnore {
		s.ResetIgnore(l)
	}

	// classes in first-appearance order, like the activities they come from
	var classes []model.CoalescingClass
	byClass := make(map[model.CoalescingClass][]string)
	for _, st := range stats {
		if st.Coalescing == model.CoalesceNone {
			continue
		}
		if _, ok := byClass[st.Coalescing]; !ok {
			classes = append(classes, st.Coalescing)
		}
		byClass[st.Coalescing] = append(byClass[st.Coalescing], st.Activity)
	}

	total := 0
	for _, class := range classes {
		marked, err := s.Mark(l, byClass[class], class)
		if err != nil {
			return nil, err
		}
		total += marked
	}

	dropped := 0
	if opts.CoalesceDropEvents {
		dropped = l.DropIgnored()
	}

	log.Debug().
		Str("evt.name", "pipeline.coalesce").
		Int("first", len(byClass[model.CoalesceFirst])).
		Int("last", len(byClass[model.CoalesceLast])).
		Int("marked", total).
		Int("dropped", dropped).
		Msg("coalesced repeating events")

	return stats, nil
}
