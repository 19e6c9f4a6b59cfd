package service

import (
	"sort"

	"github.com/rs/zerolog/log"

	"exusiai.dev/stageflow/internal/model"
)

// StageAssigner bins case-normalized time into equal-width stages.
type StageAssigner struct{}

func NewStageAssigner() *StageAssigner {
	return &StageAssigner{}
}

// Edges returns the n+1 equally spaced bin edges spanning [lo, hi].
func (s *StageAssigner) Edges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + step*float64(i)
	}
	edges[n] = hi
	return edges
}

// Bin returns the stage of v. Bins are right-closed except the first one,
// which also includes the lowest edge.
func (s *StageAssigner) Bin(edges []float64, v float64) int {
	n := len(edges) - 1
	i := sort.SearchFloat64s(edges[1:], v)
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Assign sets the stage of every event. With numStages <= 1, or when every
// event shares the same case-normalized time, all events land in stage 0.
func (s *StageAssigner) Assign(l *model.EventLog, numStages int) {
	if l.Len() == 0 {
		return
	}

	lo, hi := l.Events[0].NormCase, l.Events[0].NormCase
	for _, ev := range l.Events {
		if ev.NormCase < lo {
			lo = ev.NormCase
		}
		if ev.NormCase > hi {
			hi = ev.NormCase
		}
	}

	if numStages <= 1 || lo == hi {
		for _, ev := range l.Events {
			ev.Stage = 0
		}
		log.Debug().
			Str("evt.name", "pipeline.stage").
			Int("stages", 1).
			Msg("assigned single stage")
		return
	}

	edges := s.Edges(lo, hi, numStages)
	sizes := make([]int, numStages)
	for _, ev := range l.Events {
		ev.Stage = s.Bin(edges, ev.NormCase)
		sizes[ev.Stage]++
	}

	log.Debug().
		Str("evt.name", "pipeline.stage").
		Int("stages", numStages).
		Ints("sizes", sizes).
		Floats64("edges", edges).
		Msg("assigned stages")
}
