// Package dfg discovers directly-follows relations from an event log.
package dfg

import (
	"sort"

	"exusiai.dev/stageflow/internal/model"
)

// Pair is a directly-follows relation source -> target.
type Pair struct {
	Source string
	Target string
}

type Result struct {
	Edges map[Pair]int
	Start map[string]int
	End   map[string]int
}

// Discover counts directly-follows pairs of label values within each case.
// Events must already be ordered by timestamp within their case.
func Discover(log *model.EventLog, label func(ev *model.Event) string) *Result {
	res := &Result{
		Edges: make(map[Pair]int),
		Start: make(map[string]int),
		End:   make(map[string]int),
	}
	ids, byCase := log.Cases()
	for _, id := range ids {
		events := byCase[id]
		if len(events) == 0 {
			continue
		}
		res.Start[label(events[0])]++
		res.End[label(events[len(events)-1])]++
		for i := 1; i < len(events); i++ {
			res.Edges[Pair{Source: label(events[i-1]), Target: label(events[i])}]++
		}
	}
	return res
}

// SortedEdges lists edges ordered by source then target.
func (r *Result) SortedEdges() []model.DFGEdge {
	edges := make([]model.DFGEdge, 0, len(r.Edges))
	for p, freq := range r.Edges {
		edges = append(edges, model.DFGEdge{Source: p.Source, Target: p.Target, Frequency: freq})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}
