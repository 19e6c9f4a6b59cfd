package model

// DependencyEdge is a directed dependency between two activities.
type DependencyEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// DependencyGraph is the dependency structure of one stage. Nodes keep their
// insertion order so integer remapping is reproducible.
type DependencyGraph struct {
	Stage int              `json:"stage"`
	Nodes []string         `json:"nodes"`
	Edges []DependencyEdge `json:"edges"`

	index map[string]int
}

func NewDependencyGraph(stage int) *DependencyGraph {
	return &DependencyGraph{
		Stage: stage,
		Nodes: make([]string, 0),
		Edges: make([]DependencyEdge, 0),
		index: make(map[string]int),
	}
}

// AddNode registers a node once and returns its position.
func (g *DependencyGraph) AddNode(name string) int {
	if g.index == nil {
		g.index = make(map[string]int, len(g.Nodes))
		for i, n := range g.Nodes {
			g.index[n] = i
		}
	}
	if i, ok := g.index[name]; ok {
		return i
	}
	g.index[name] = len(g.Nodes)
	g.Nodes = append(g.Nodes, name)
	return len(g.Nodes) - 1
}

func (g *DependencyGraph) AddEdge(source, target string, weight float64) {
	g.AddNode(source)
	g.AddNode(target)
	g.Edges = append(g.Edges, DependencyEdge{Source: source, Target: target, Weight: weight})
}

// Isolated returns nodes without any incident edge, in node order.
func (g *DependencyGraph) Isolated() []string {
	touched := make(map[string]bool, len(g.Nodes))
	for _, e := range g.Edges {
		touched[e.Source] = true
		touched[e.Target] = true
	}
	isolated := make([]string, 0)
	for _, n := range g.Nodes {
		if !touched[n] {
			isolated = append(isolated, n)
		}
	}
	return isolated
}

// CommunityDict maps stage -> community index -> member activities.
type CommunityDict map[int][][]string

// StageActivity is the composite key of the community lookup.
type StageActivity struct {
	Stage    int
	Activity string
}

// Lookup flattens the dictionary into a (stage, activity) -> community index map.
func (d CommunityDict) Lookup() map[StageActivity]int {
	m := make(map[StageActivity]int)
	for stage, communities := range d {
		for idx, members := range communities {
			for _, act := range members {
				m[StageActivity{Stage: stage, Activity: act}] = idx
			}
		}
	}
	return m
}
