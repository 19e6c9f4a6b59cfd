package service

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"exusiai.dev/stageflow/internal/model"
)

// Normalizer derives relative and min-max normalized times and the
// per-(case, activity) occurrence order of every event.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize sorts the log by case and timestamp and fills RelSeconds,
// LogSeconds, NormLog, NormCase, Order and MaxOrder.
func (s *Normalizer) Normalize(l *model.EventLog) {
	if l.Len() == 0 {
		return
	}
	l.SortByCaseAndTime()

	ids, byCase := l.Cases()

	var logMin, logMax int64 = math.MaxInt64, math.MinInt64
	for _, id := range ids {
		events := byCase[id]
		start := events[0].Timestamp
		for _, ev := range events {
			if ev.Timestamp.Before(start) {
				start = ev.Timestamp
			}
		}

		var caseMin, caseMax int64 = math.MaxInt64, math.MinInt64
		for _, ev := range events {
			ev.RelSeconds = int64(ev.Timestamp.Sub(start) / time.Second)
			ev.LogSeconds = math.Log(float64(ev.RelSeconds) + 1)
			if ev.RelSeconds < caseMin {
				caseMin = ev.RelSeconds
			}
			if ev.RelSeconds > caseMax {
				caseMax = ev.RelSeconds
			}
		}
		for _, ev := range events {
			ev.NormCase = minMax(ev.RelSeconds, caseMin, caseMax)
		}

		if caseMin < logMin {
			logMin = caseMin
		}
		if caseMax > logMax {
			logMax = caseMax
		}

		assignOrder(events)
	}

	for _, ev := range l.Events {
		ev.NormLog = minMax(ev.RelSeconds, logMin, logMax)
	}

	log.Debug().
		Str("evt.name", "pipeline.normalize").
		Int("cases", len(ids)).
		Int("events", l.Len()).
		Int64("maxRelSeconds", logMax).
		Msg("normalized relative times")
}

// minMax maps v into [0, 1]. A zero-width range maps to 0.
func minMax(v, lo, hi int64) float64 {
	if hi == lo {
		return 0
	}
	return float64(v-lo) / float64(hi-lo)
}

// assignOrder numbers the occurrences of each activity of one time-ordered case.
func assignOrder(events []*model.Event) {
	counts := make(map[string]int)
	for _, ev := range events {
		ev.Order = counts[ev.Activity]
		counts[ev.Activity]++
	}
	for _, ev := range events {
		ev.MaxOrder = counts[ev.Activity] - 1
	}
}
