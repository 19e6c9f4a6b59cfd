// Package leiden partitions a weighted graph over dense integer node ids into
// communities. Local moving maximizes modularity, then a refinement pass splits
// communities that are not internally connected.
package leiden

import (
	"context"
	"sort"
)

const (
	// DefaultMaxIterations is the maximum number of outer passes.
	DefaultMaxIterations = 100

	// DefaultConvergenceThreshold stops early if modularity gain < this.
	DefaultConvergenceThreshold = 1e-6

	// DefaultResolution affects community granularity.
	// Higher values = smaller communities, lower = larger communities.
	DefaultResolution = 1.0
)

type Options struct {
	MaxIterations        int
	ConvergenceThreshold float64
	Resolution           float64
}

func DefaultOptions() *Options {
	return &Options{
		MaxIterations:        DefaultMaxIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		Resolution:           DefaultResolution,
	}
}

func (o *Options) validate() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.ConvergenceThreshold <= 0 {
		o.ConvergenceThreshold = DefaultConvergenceThreshold
	}
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
}

// Graph is an undirected weighted graph. Directed edges added in both
// directions accumulate on the same undirected pair.
type Graph struct {
	n   int
	adj []map[int]float64
}

func NewGraph(n int) *Graph {
	adj := make([]map[int]float64, n)
	for i := range adj {
		adj[i] = make(map[int]float64)
	}
	return &Graph{n: n, adj: adj}
}

func (g *Graph) NodeCount() int { return g.n }

func (g *Graph) AddEdge(u, v int, w float64) {
	if w <= 0 {
		return
	}
	g.adj[u][v] += w
	if u != v {
		g.adj[v][u] += w
	}
}

// neighbors returns adjacent nodes in ascending order, self excluded.
func (g *Graph) neighbors(u int) []int {
	ns := make([]int, 0, len(g.adj[u]))
	for v := range g.adj[u] {
		if v != u {
			ns = append(ns, v)
		}
	}
	sort.Ints(ns)
	return ns
}

func (g *Graph) degree(u int) float64 {
	d := 0.0
	for v, w := range g.adj[u] {
		if v == u {
			d += 2 * w
		} else {
			d += w
		}
	}
	return d
}

func (g *Graph) totalWeight() float64 {
	m := 0.0
	for u := 0; u < g.n; u++ {
		for v, w := range g.adj[u] {
			if v >= u {
				m += w
			}
		}
	}
	return m
}

// Detect returns disjoint communities covering every node. Members are sorted
// ascending; communities are ordered by size descending, then by smallest member.
func Detect(ctx context.Context, g *Graph, opts *Options) ([][]int, error) {
	if opts == nil {
		opts = DefaultOptions()
	} else {
		opts.validate()
	}
	if g.n == 0 {
		return [][]int{}, nil
	}

	nodeToComm := make([]int, g.n)
	for i := range nodeToComm {
		nodeToComm[i] = i
	}

	m := g.totalWeight()
	if m == 0 {
		return collect(nodeToComm), nil
	}

	degrees := make([]float64, g.n)
	for i := 0; i < g.n; i++ {
		degrees[i] = g.degree(i)
	}
	commDegreeSum := make(map[int]float64, g.n)
	for i, c := range nodeToComm {
		commDegreeSum[c] += degrees[i]
	}

	previousQ := -1.0
	for iter := 0; iter < opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		improved := false
		for i := 0; i < g.n; i++ {
			current := nodeToComm[i]
			ki := degrees[i]

			weightTo := make(map[int]float64)
			for _, j := range g.neighbors(i) {
				weightTo[nodeToComm[j]] += g.adj[i][j]
			}

			candidates := make([]int, 0, len(weightTo))
			for c := range weightTo {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)

			best, bestGain := current, 0.0
			for _, c := range candidates {
				if c == current {
					continue
				}
				sumCurrent := commDegreeSum[current] - ki
				gain := (weightTo[c]-weightTo[current])/m -
					opts.Resolution*ki*(commDegreeSum[c]-sumCurrent)/(2*m*m)
				if gain > bestGain {
					best, bestGain = c, gain
				}
			}
			if best != current {
				commDegreeSum[current] -= ki
				commDegreeSum[best] += ki
				nodeToComm[i] = best
				improved = true
			}
		}

		if improved {
			nodeToComm = refine(g, nodeToComm)
			commDegreeSum = make(map[int]float64, g.n)
			for i, c := range nodeToComm {
				commDegreeSum[c] += degrees[i]
			}
		}

		q := modularity(g, nodeToComm, commDegreeSum, m, opts.Resolution)
		if !improved || (previousQ >= 0 && q-previousQ < opts.ConvergenceThreshold) {
			break
		}
		previousQ = q
	}

	return collect(nodeToComm), nil
}

// refine splits every community into its connected components.
func refine(g *Graph, nodeToComm []int) []int {
	refined := make([]int, len(nodeToComm))
	for i := range refined {
		refined[i] = -1
	}
	next := 0
	for start := 0; start < g.n; start++ {
		if refined[start] >= 0 {
			continue
		}
		comm := nodeToComm[start]
		queue := []int{start}
		refined[start] = next
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range g.neighbors(u) {
				if refined[v] < 0 && nodeToComm[v] == comm {
					refined[v] = next
					queue = append(queue, v)
				}
			}
		}
		next++
	}
	return refined
}

func modularity(g *Graph, nodeToComm []int, commDegreeSum map[int]float64, m float64, resolution float64) float64 {
	internal := make(map[int]float64)
	for u := 0; u < g.n; u++ {
		for v, w := range g.adj[u] {
			if v >= u && nodeToComm[u] == nodeToComm[v] {
				internal[nodeToComm[u]] += w
			}
		}
	}
	q := 0.0
	for c, sum := range commDegreeSum {
		q += internal[c]/m - resolution*(sum/(2*m))*(sum/(2*m))
	}
	return q
}

func collect(nodeToComm []int) [][]int {
	groups := make(map[int][]int)
	for i, c := range nodeToComm {
		groups[c] = append(groups[c], i)
	}
	res := make([][]int, 0, len(groups))
	for _, members := range groups {
		res = append(res, members)
	}
	sort.Slice(res, func(i, j int) bool {
		if len(res[i]) != len(res[j]) {
			return len(res[i]) > len(res[j])
		}
		return res[i][0] < res[j][0]
	})
	return res
}
