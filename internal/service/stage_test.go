package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"exusiai.dev/stageflow/internal/model"
)

func TestStageAssignerBin(t *testing.T) {
	s := NewStageAssigner()
	edges := s.Edges(0, 1, 4)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, edges, 1e-12)

	assert.Equal(t, 0, s.Bin(edges, 0))
	assert.Equal(t, 0, s.Bin(edges, 0.25))
	assert.Equal(t, 1, s.Bin(edges, 0.2500001))
	assert.Equal(t, 2, s.Bin(edges, 0.75))
	assert.Equal(t, 3, s.Bin(edges, 1))
}

func TestStageAssignerAssign(t *testing.T) {
	l := repeatingLog()
	NewNormalizer().Normalize(l)
	NewStageAssigner().Assign(l, 2)

	// normalized case times 0, 0.1, 0.3, 0.6, 1.0
	stages := make([]int, 5)
	for i, ev := range l.Events[:5] {
		stages[i] = ev.Stage
	}
	assert.Equal(t, []int{0, 0, 0, 1, 1}, stages)
	for _, ev := range l.Events {
		assert.True(t, ev.Stage >= 0 && ev.Stage < 2)
	}
}

func TestStageAssignerSingleStage(t *testing.T) {
	for _, n := range []int{0, 1} {
		l := repeatingLog()
		NewNormalizer().Normalize(l)
		NewStageAssigner().Assign(l, n)
		assert.Equal(t, []int{0}, l.Stages())
	}

	// identical normalized times collapse into stage 0
	l := logOf(caseTrace("1", at("A", 0)), caseTrace("2", at("B", 0)))
	NewNormalizer().Normalize(l)
	NewStageAssigner().Assign(l, 3)
	assert.Equal(t, []int{0}, l.Stages())
}

func TestStageAssignerEmpty(t *testing.T) {
	l := model.NewEventLog("empty", nil)
	assert.NotPanics(t, func() { NewStageAssigner().Assign(l, 3) })
}
