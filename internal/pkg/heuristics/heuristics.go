// Package heuristics mines a dependency graph with the heuristics-miner
// dependency measure.
package heuristics

import (
	"sort"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/dfg"
)

// Dependency returns the dependency measure of a -> b given directly-follows counts.
//
//	a != b: (|a>b| - |b>a|) / (|a>b| + |b>a| + 1)
//	a == b: |a>a| / (|a>a| + 1)
func Dependency(ab, ba int, loop bool) float64 {
	if loop {
		return float64(ab) / float64(ab+1)
	}
	return float64(ab-ba) / float64(ab+ba+1)
}

// Mine builds the dependency graph of a log slice. Every activity of the slice
// becomes a node; an edge is kept when its dependency exceeds threshold.
func Mine(log *model.EventLog, threshold float64) *model.DependencyGraph {
	g := model.NewDependencyGraph(0)
	for _, act := range log.Activities() {
		g.AddNode(act)
	}

	res := dfg.Discover(log, func(ev *model.Event) string { return ev.Activity })

	position := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		position[n] = i
	}
	pairs := make([]dfg.Pair, 0, len(res.Edges))
	for p := range res.Edges {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if position[pairs[i].Source] != position[pairs[j].Source] {
			return position[pairs[i].Source] < position[pairs[j].Source]
		}
		return position[pairs[i].Target] < position[pairs[j].Target]
	})

	for _, p := range pairs {
		loop := p.Source == p.Target
		dep := Dependency(res.Edges[p], res.Edges[dfg.Pair{Source: p.Target, Target: p.Source}], loop)
		if dep > threshold {
			g.AddEdge(p.Source, p.Target, dep)
		}
	}
	return g
}
