package service

import (
	"sort"

	"github.com/ahmetb/go-linq/v3"

	"exusiai.dev/stageflow/internal/model"
)

// Evaluation computes read-only statistics of enhanced logs and concise models.
type Evaluation struct{}

func NewEvaluation() *Evaluation {
	return &Evaluation{}
}

func countDistinct(l *model.EventLog, selector func(ev *model.Event) interface{}) int {
	return linq.From(l.Events).
		SelectT(selector).
		Distinct().
		Count()
}

// LogStatistics counts cases, events, activities, representative labels,
// stages and ranked communities. Unranked events do not add a community.
func (s *Evaluation) LogStatistics(l *model.EventLog) model.LogStatistics {
	return model.LogStatistics{
		LogName:          l.Name,
		NumCases:         countDistinct(l, func(ev *model.Event) interface{} { return ev.CaseID }),
		NumEvents:        l.Len(),
		NumActivities:    countDistinct(l, func(ev *model.Event) interface{} { return ev.Activity }),
		NumRepActivities: countDistinct(l, func(ev *model.Event) interface{} { return ev.MultiActivity }),
		NumStages:        countDistinct(l, func(ev *model.Event) interface{} { return ev.Stage }),
		NumCommunities: linq.From(l.Events).
			WhereT(func(ev *model.Event) bool { return ev.CommunityRankOverall.Valid }).
			SelectT(func(ev *model.Event) int64 { return ev.CommunityRankOverall.Int64 }).
			Distinct().
			Count(),
	}
}

// GraphStatistics describes the directly-follows graph of m. Nodes are the
// endpoints of its edges. Cycles of at most lengthBound nodes are counted,
// self-loops included.
func (s *Evaluation) GraphStatistics(name string, m *model.ConciseModel, lengthBound int) model.GraphStatistics {
	stats := model.GraphStatistics{
		LogName:  name,
		NumEdges: len(m.Edges),
	}

	index := make(map[string]int)
	for _, e := range m.Edges {
		for _, n := range []string{e.Source, e.Target} {
			if _, ok := index[n]; !ok {
				index[n] = len(index)
			}
		}
		if e.Source == e.Target {
			stats.NumSelfLoops++
			stats.SumSelfLoopsWeight += e.Frequency
		}
	}
	stats.NumNodes = len(index)

	adj := make([][]int, len(index))
	for _, e := range m.Edges {
		u := index[e.Source]
		adj[u] = append(adj[u], index[e.Target])
	}
	for _, succ := range adj {
		sort.Ints(succ)
	}
	stats.NumCycles = CountCycles(adj, lengthBound)
	return stats
}

// CountCycles counts the elementary cycles of a directed graph with at most
// bound nodes. Every cycle is counted once, from its smallest node.
func CountCycles(adj [][]int, bound int) int {
	if bound < 1 {
		return 0
	}
	onPath := make([]bool, len(adj))
	count := 0

	var walk func(start, u, depth int)
	walk = func(start, u, depth int) {
		for _, v := range adj[u] {
			if v == start {
				count++
				continue
			}
			if v < start || onPath[v] || depth == bound {
				continue
			}
			onPath[v] = true
			walk(start, v, depth+1)
			onPath[v] = false
		}
	}

	for start := range adj {
		onPath[start] = true
		walk(start, start, 1)
		onPath[start] = false
	}
	return count
}

// Evaluate merges log and graph statistics of one run.
func (s *Evaluation) Evaluate(l *model.EventLog, m *model.ConciseModel, lengthBound int) model.Evaluation {
	return model.Evaluation{
		LogStatistics: s.LogStatistics(l),
		Graph:         s.GraphStatistics(l.Name, m, lengthBound),
	}
}
