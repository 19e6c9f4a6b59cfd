package service

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/observability"
	"exusiai.dev/stageflow/internal/util"
)

// Classifier summarizes the frequency and position of every activity and
// assigns its behavior and coalescing class.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Statistics returns one record per distinct activity in first-appearance order.
// The log must be normalized.
func (s *Classifier) Statistics(l *model.EventLog) []model.ActivityStats {
	type sample struct {
		perCase map[string]int
		cases   []string
		posLog  []float64
		posCase []float64
	}

	activities := l.Activities()
	samples := make(map[string]*sample, len(activities))
	for _, act := range activities {
		samples[act] = &sample{perCase: make(map[string]int)}
	}
	for _, ev := range l.Events {
		smp := samples[ev.Activity]
		if _, ok := smp.perCase[ev.CaseID]; !ok {
			smp.cases = append(smp.cases, ev.CaseID)
		}
		smp.perCase[ev.CaseID]++
		smp.posLog = append(smp.posLog, ev.NormLog)
		smp.posCase = append(smp.posCase, ev.NormCase)
	}

	return lo.Map(activities, func(act string, _ int) model.ActivityStats {
		smp := samples[act]
		freq := lo.Map(smp.cases, func(c string, _ int) int { return smp.perCase[c] })
		return model.ActivityStats{
			Activity:        act,
			FreqLogAbsolute: len(smp.posLog),
			FreqPerCase:     util.Summarize(freq),
			PosLog:          util.Summarize(smp.posLog),
			PosCase:         util.Summarize(smp.posCase),
		}
	})
}

// Behavior classifies one activity. An undefined frequency mean or position
// deviation leaves the activity unclassified.
func (s *Classifier) Behavior(stats *model.ActivityStats, opts *model.PipelineOptions) model.BehaviorClass {
	freq, pos := stats.FreqPerCase.Mean, stats.PosCase.Std
	if !freq.Valid || !pos.Valid {
		return model.BehaviorUnclassified
	}
	occasional := freq.Float64 <= opts.FreqMeanThreshold
	stable := pos.Float64 <= opts.PosStdThreshold
	switch {
	case occasional && stable:
		return model.BehaviorO1
	case occasional:
		return model.BehaviorO2
	case stable:
		return model.BehaviorM1
	default:
		return model.BehaviorM2
	}
}

// Coalescing keeps the first occurrence of right-skewed M2 activities and the
// last one of every other M2 activity, undefined skew included.
func (s *Classifier) Coalescing(stats *model.ActivityStats) model.CoalescingClass {
	if stats.Behavior != model.BehaviorM2 {
		return model.CoalesceNone
	}
	if skew := stats.PosCase.Skew; skew.Valid && skew.Float64 > 0 {
		return model.CoalesceFirst
	}
	return model.CoalesceLast
}

// Classify computes the statistics of the log and classifies every activity.
func (s *Classifier) Classify(l *model.EventLog, opts *model.PipelineOptions) []model.ActivityStats {
	stats := s.Statistics(l)
	for i := range stats {
		stats[i].Behavior = s.Behavior(&stats[i], opts)
		stats[i].Coalescing = s.Coalescing(&stats[i])
	}

	counts := make(map[model.BehaviorClass]int)
	for _, st := range stats {
		counts[st.Behavior]++
	}
	for _, class := range []model.BehaviorClass{model.BehaviorO1, model.BehaviorO2, model.BehaviorM1, model.BehaviorM2, model.BehaviorUnclassified} {
		label := string(class)
		if class == model.BehaviorUnclassified {
			label = "unclassified"
		}
		observability.ActivityBehaviors.WithLabelValues(l.Name, label).Set(float64(counts[class]))
	}

	log.Debug().
		Str("evt.name", "pipeline.classify").
		Int("activities", len(stats)).
		Int("o1", counts[model.BehaviorO1]).
		Int("o2", counts[model.BehaviorO2]).
		Int("m1", counts[model.BehaviorM1]).
		Int("m2", counts[model.BehaviorM2]).
		Int("unclassified", counts[model.BehaviorUnclassified]).
		Msg("classified activity behavior")

	return stats
}
