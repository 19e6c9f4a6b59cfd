package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

func ignored(l *model.EventLog) []bool {
	flags := make([]bool, l.Len())
	for i, ev := range l.Events {
		flags[i] = ev.Ignore
	}
	return flags
}

func TestCoalescerMark(t *testing.T) {
	c := NewCoalescer(NewClassifier())

	l := logOf(caseTrace("1", at("A", 0), at("B", 1), at("A", 2), at("A", 3)))
	NewNormalizer().Normalize(l)

	marked, err := c.Mark(l, []string{"A"}, model.CoalesceFirst)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	assert.Equal(t, []bool{false, false, true, true}, ignored(l))

	// idempotent
	marked, err = c.Mark(l, []string{"A"}, model.CoalesceFirst)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
	assert.Equal(t, []bool{false, false, true, true}, ignored(l))

	c.ResetIgnore(l)
	marked, err = c.Mark(l, []string{"A"}, model.CoalesceLast)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)
	assert.Equal(t, []bool{true, false, true, false}, ignored(l))
}

func TestCoalescerMarkInvalidClass(t *testing.T) {
	c := NewCoalescer(NewClassifier())
	l := logOf(caseTrace("1", at("A", 0), at("A", 1)))
	NewNormalizer().Normalize(l)

	_, err := c.Mark(l, []string{"A"}, model.CoalescingClass("middle"))
	assert.ErrorIs(t, err, flowerr.ErrInvalidConfig)
	assert.Equal(t, []bool{false, false}, ignored(l))
}

func TestCoalescerCoalesce(t *testing.T) {
	c := NewCoalescer(NewClassifier())
	opts := model.DefaultPipelineOptions()

	l := repeatingLog()
	NewNormalizer().Normalize(l)
	_, err := c.Coalesce(l, &opts)
	require.NoError(t, err)

	// A keeps its first occurrence per case, the log keeps its size
	assert.Equal(t, 10, l.Len())
	assert.Equal(t, []bool{false, true, false, true, false}, ignored(l)[:5])

	opts.CoalesceDropEvents = true
	_, err = c.Coalesce(l, &opts)
	require.NoError(t, err)
	assert.Equal(t, 6, l.Len())
	for _, ev := range l.Events {
		assert.False(t, ev.Ignore)
	}
}
