package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/async"
	"exusiai.dev/stageflow/internal/pkg/heuristics"
	"exusiai.dev/stageflow/internal/pkg/leiden"
	"exusiai.dev/stageflow/internal/pkg/observability"
)

// Community builds one dependency graph per stage and partitions each of
// them into communities of activities.
type Community struct {
	Tracer trace.Tracer
}

func NewCommunity(tracer trace.Tracer) *Community {
	return &Community{
		Tracer: tracer,
	}
}

// StageResult is the outcome of one stage: its dependency graph and the
// partition of the graph's nodes.
type StageResult struct {
	Graph       *model.DependencyGraph
	Communities [][]string
}

// DependencyGraph mines the dependency graph of one stage. Activities without
// any qualifying edge get a zero-weight self-loop so they stay in the graph.
func (s *Community) DependencyGraph(slice *model.EventLog, stage int, threshold float64) *model.DependencyGraph {
	g := heuristics.Mine(slice, threshold)
	g.Stage = stage
	for _, n := range g.Isolated() {
		g.AddEdge(n, n, 0)
	}
	return g
}

// Partition remaps the nodes of g onto dense integers in node order, detects
// communities and maps them back to activity names.
func (s *Community) Partition(ctx context.Context, g *model.DependencyGraph) ([][]string, error) {
	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n] = i
	}

	dense := leiden.NewGraph(len(g.Nodes))
	for _, e := range g.Edges {
		dense.AddEdge(index[e.Source], index[e.Target], e.Weight)
	}

	groups, err := leiden.Detect(ctx, dense, leiden.DefaultOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to detect communities of stage %d", g.Stage)
	}

	communities := make([][]string, len(groups))
	for i, members := range groups {
		communities[i] = make([]string, len(members))
		for j, m := range members {
			communities[i][j] = g.Nodes[m]
		}
	}
	return communities, nil
}

// Discover runs mining and detection for every stage present in the log,
// at most opts.StageConcurrency stages at a time. Results are in stage order.
func (s *Community) Discover(ctx context.Context, l *model.EventLog, opts *model.PipelineOptions) (model.CommunityDict, []StageResult, error) {
	stages := l.Stages()
	sort.Ints(stages)

	slices := make(map[int]*model.EventLog, len(stages))
	for _, stage := range stages {
		stage := stage
		slices[stage] = l.Filter(func(ev *model.Event) bool { return ev.Stage == stage })
	}

	results, err := async.Map(stages, opts.StageConcurrency, func(stage int) (StageResult, error) {
		ctx, span := s.Tracer.Start(ctx, "community.stage", trace.WithAttributes(attribute.Int("stage", stage)))
		defer span.End()

		g := s.DependencyGraph(slices[stage], stage, opts.DependencyThreshold)
		communities, err := s.Partition(ctx, g)
		if err != nil {
			span.RecordError(err)
			return StageResult{}, err
		}
		span.SetAttributes(
			attribute.Int("nodes", len(g.Nodes)),
			attribute.Int("edges", len(g.Edges)),
			attribute.Int("communities", len(communities)),
		)
		return StageResult{Graph: g, Communities: communities}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	dict := make(model.CommunityDict, len(results))
	for _, r := range results {
		dict[r.Graph.Stage] = r.Communities
		observability.StageCommunities.WithLabelValues(l.Name, strconv.Itoa(r.Graph.Stage)).Set(float64(len(r.Communities)))
		log.Debug().
			Str("evt.name", "pipeline.community").
			Int("stage", r.Graph.Stage).
			Int("nodes", len(r.Graph.Nodes)).
			Int("edges", len(r.Graph.Edges)).
			Int("communities", len(r.Communities)).
			Msg("detected stage communities")
	}
	return dict, results, nil
}

// Assign sets the community of every event from the (stage, activity) lookup
// of dict. Events without an entry keep an invalid community.
func (s *Community) Assign(l *model.EventLog, dict model.CommunityDict) int {
	lookup := dict.Lookup()
	missing := 0
	for _, ev := range l.Events {
		idx, ok := lookup[model.StageActivity{Stage: ev.Stage, Activity: ev.Activity}]
		if !ok {
			ev.Community = null.Int{}
			missing++
			continue
		}
		ev.Community = null.IntFrom(int64(idx))
	}
	return missing
}
