package heuristics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"exusiai.dev/stageflow/internal/model"
)

func eventsOf(traces map[string][]string) *model.EventLog {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	events := make([]*model.Event, 0)
	for _, id := range []string{"1", "2", "3", "4"} {
		for i, a := range traces[id] {
			events = append(events, &model.Event{CaseID: id, Activity: a, Timestamp: base.Add(time.Duration(i) * time.Second)})
		}
	}
	return model.NewEventLog("t", events)
}

func TestDependency(t *testing.T) {
	assert.InDelta(t, 0.75, Dependency(3, 0, false), 1e-9)
	assert.InDelta(t, -0.75, Dependency(0, 3, false), 1e-9)
	assert.InDelta(t, 0.0, Dependency(2, 2, false), 1e-9)
	assert.InDelta(t, 2.0/3.0, Dependency(2, 0, true), 1e-9)
}

func TestMineKeepsEveryActivity(t *testing.T) {
	log := eventsOf(map[string][]string{
		"1": {"A", "B", "C"},
		"2": {"A", "B", "C"},
		"3": {"A", "B"},
		"4": {"D"},
	})

	g := Mine(log, 0.5)
	assert.Equal(t, []string{"A", "B", "C", "D"}, g.Nodes)
	assert.Equal(t, []model.DependencyEdge{
		{Source: "A", Target: "B", Weight: 0.75},
		{Source: "B", Target: "C", Weight: 2.0 / 3.0},
	}, g.Edges)
	assert.Equal(t, []string{"D"}, g.Isolated())
}

func TestMineThresholdIsExclusive(t *testing.T) {
	log := eventsOf(map[string][]string{
		"1": {"A", "B"},
	})
	assert.Empty(t, Mine(log, 0.5).Edges)
	assert.Len(t, Mine(log, 0.4).Edges, 1)
}
