package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

func rankedEvent(stage int, comm null.Int, act string, normCase float64) *model.Event {
	return &model.Event{CaseID: "1", Activity: act, Stage: stage, Community: comm, NormCase: normCase, NormLog: normCase}
}

func rankingLog() *model.EventLog {
	return model.NewEventLog("rank", []*model.Event{
		rankedEvent(0, null.IntFrom(0), "A", 0.4),
		rankedEvent(0, null.IntFrom(0), "B", 0.6),
		rankedEvent(0, null.IntFrom(1), "C", 0.1),
		rankedEvent(1, null.IntFrom(0), "D", 0.2),
		rankedEvent(1, null.Int{}, "E", 0.9),
	})
}

func TestRankingCommunityRanks(t *testing.T) {
	s := NewRanking()
	l := rankingLog()

	overall, err := s.Rank(l, CommunityRankOverall)
	require.NoError(t, err)
	require.Len(t, overall.Rows, 3)

	lookup := func(table *model.RankTable, stage, comm int64) int {
		r, ok := table.Lookup(model.Key{model.IntCell(stage), model.IntCell(comm)})
		require.True(t, ok)
		return r
	}
	// stage first, then median ascending
	assert.Equal(t, 0, lookup(overall, 0, 1))
	assert.Equal(t, 1, lookup(overall, 0, 0))
	assert.Equal(t, 2, lookup(overall, 1, 0))

	within, err := s.Rank(l, CommunityRankWithin)
	require.NoError(t, err)
	assert.Equal(t, 0, lookup(within, 0, 1))
	assert.Equal(t, 1, lookup(within, 0, 0))
	assert.Equal(t, 0, lookup(within, 1, 0))
}

func TestRankingMonotoneWithinStage(t *testing.T) {
	s := NewRanking()
	table, err := s.Rank(rankingLog(), CommunityRankOverall)
	require.NoError(t, err)

	for i := 1; i < len(table.Rows); i++ {
		prev, cur := table.Rows[i-1], table.Rows[i]
		if prev.Key[0] == cur.Key[0] {
			assert.LessOrEqual(t, prev.Aggregate, cur.Aggregate)
		}
		assert.Equal(t, prev.Rank+1, cur.Rank)
	}
}

func TestRankingJoinLeavesUnranked(t *testing.T) {
	s := NewRanking()
	l := rankingLog()

	table, err := s.Rank(l, CommunityRankOverall)
	require.NoError(t, err)
	unranked := s.Join(l, table, func(ev *model.Event, r null.Int) { ev.CommunityRankOverall = r })
	assert.Equal(t, 1, unranked)
	assert.False(t, l.Events[4].CommunityRankOverall.Valid)
	assert.Equal(t, int64(1), l.Events[0].CommunityRankOverall.Int64)
	assert.Equal(t, int64(0), l.Events[2].CommunityRankOverall.Int64)
}

func TestRankingRankAll(t *testing.T) {
	s := NewRanking()
	l := rankingLog()

	tables, err := s.RankAll(l)
	require.NoError(t, err)
	require.Len(t, tables, 4)

	// activity ranks restart for every overall community rank
	assert.Equal(t, null.IntFrom(0), l.Events[0].ActivityRankWithin)
	assert.Equal(t, null.IntFrom(1), l.Events[1].ActivityRankWithin)
	assert.Equal(t, null.IntFrom(0), l.Events[2].ActivityRankWithin)
	assert.Equal(t, null.IntFrom(0), l.Events[3].ActivityRankWithin)
	assert.False(t, l.Events[4].ActivityRankWithin.Valid)

	assert.Equal(t, null.IntFrom(1), l.Events[0].ActivityRankOverall)
	assert.Equal(t, null.IntFrom(0), l.Events[2].ActivityRankOverall)
	assert.Equal(t, null.IntFrom(3), l.Events[3].ActivityRankOverall)
}

func TestRankingValidate(t *testing.T) {
	s := NewRanking()

	cases := []struct {
		name string
		spec model.RankSpec
	}{
		{"invalid agg", model.RankSpec{GroupBy: []model.Column{model.ColumnStage}, Value: model.ColumnNormCase}},
		{"no group", model.RankSpec{Value: model.ColumnNormCase, Agg: model.AggMean}},
		{"too many groups", model.RankSpec{GroupBy: []model.Column{model.ColumnStage, model.ColumnCommunity, model.ColumnActivity, model.ColumnCase}, Value: model.ColumnNormCase, Agg: model.AggMean}},
		{"non numeric value", model.RankSpec{GroupBy: []model.Column{model.ColumnStage}, Value: model.ColumnActivity, Agg: model.AggMean}},
		{"foreign sort column", model.RankSpec{GroupBy: []model.Column{model.ColumnStage}, Value: model.ColumnNormCase, Agg: model.AggMax, SortBy: []model.Column{model.ColumnActivity}}},
		{"foreign restart column", model.RankSpec{GroupBy: []model.Column{model.ColumnStage}, Value: model.ColumnNormCase, Agg: model.AggMin, Within: model.ColumnCommunity}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := s.Rank(rankingLog(), c.spec)
			assert.ErrorIs(t, err, flowerr.ErrInvalidConfig)
		})
	}
}

func TestRankingAggregates(t *testing.T) {
	s := NewRanking()
	l := model.NewEventLog("agg", []*model.Event{
		rankedEvent(0, null.IntFrom(0), "A", 0.1),
		rankedEvent(0, null.IntFrom(0), "A", 0.2),
		rankedEvent(0, null.IntFrom(0), "A", 0.9),
	})
	expect := map[model.AggKind]float64{
		model.AggMean:   0.4,
		model.AggMedian: 0.2,
		model.AggMin:    0.1,
		model.AggMax:    0.9,
	}
	for agg, want := range expect {
		table, err := s.Rank(l, model.RankSpec{GroupBy: []model.Column{model.ColumnActivity}, Value: model.ColumnNormCase, Agg: agg})
		require.NoError(t, err)
		require.Len(t, table.Rows, 1)
		assert.InDelta(t, want, table.Rows[0].Aggregate, 1e-12, agg.String())
	}
}
