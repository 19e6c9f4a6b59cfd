package service

import (
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/dfg"
)

// Assembler builds the concise model out of an enhanced log.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// StageCommunities lists the community labels of every stage, ordered by
// their within-stage rank. Unranked events come last.
func (s *Assembler) StageCommunities(l *model.EventLog) []model.StageCommunities {
	byStage := lo.GroupBy(l.Events, func(ev *model.Event) int { return ev.Stage })
	stages := lo.Keys(byStage)
	sort.Ints(stages)

	return lo.Map(stages, func(stage int, _ int) model.StageCommunities {
		events := append([]*model.Event(nil), byStage[stage]...)
		sort.SliceStable(events, func(i, j int) bool {
			a, b := events[i].CommunityRankWithin, events[j].CommunityRankWithin
			if a.Valid != b.Valid {
				return a.Valid
			}
			return a.Int64 < b.Int64
		})
		labels := lo.Uniq(lo.Map(events, func(ev *model.Event, _ int) string { return ev.MultiCommunity }))
		return model.StageCommunities{Stage: stage, Communities: labels}
	})
}

// CommunityActivities lists, per community label in lexical order, the
// activity labels in order of appearance.
func (s *Assembler) CommunityActivities(l *model.EventLog) []model.CommunityActivities {
	byCommunity := lo.GroupBy(l.Events, func(ev *model.Event) string { return ev.MultiCommunity })
	communities := lo.Keys(byCommunity)
	sort.Strings(communities)

	return lo.Map(communities, func(comm string, _ int) model.CommunityActivities {
		labels := lo.Uniq(lo.Map(byCommunity[comm], func(ev *model.Event, _ int) string { return ev.MultiActivity }))
		return model.CommunityActivities{Community: comm, Activities: labels}
	})
}

// Assemble discovers the directly-follows graph over multi-community labels
// and the stage and community membership lists.
func (s *Assembler) Assemble(l *model.EventLog) *model.ConciseModel {
	res := dfg.Discover(l, func(ev *model.Event) string { return ev.MultiCommunity })
	m := &model.ConciseModel{
		Edges:               res.SortedEdges(),
		Start:               res.Start,
		End:                 res.End,
		StageCommunities:    s.StageCommunities(l),
		CommunityActivities: s.CommunityActivities(l),
	}

	log.Debug().
		Str("evt.name", "pipeline.assemble").
		Int("edges", len(m.Edges)).
		Int("start", len(m.Start)).
		Int("end", len(m.End)).
		Int("communities", len(m.CommunityActivities)).
		Msg("assembled concise model")
	return m
}
