package service

import (
	"sort"

	"github.com/ahmetb/go-linq/v3"
	"github.com/rs/zerolog/log"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/util"
)

// Ranking orders groups of events by an aggregated time measure and joins the
// resulting ranks back onto the events.
type Ranking struct{}

func NewRanking() *Ranking {
	return &Ranking{}
}

// Standard rank specifications, applied in this order.
var (
	CommunityRankOverall = model.RankSpec{
		Name:    model.HeaderCommunityRankOverall,
		GroupBy: []model.Column{model.ColumnStage, model.ColumnCommunity},
		Value:   model.ColumnNormCase,
		Agg:     model.AggMedian,
		SortBy:  []model.Column{model.ColumnStage},
	}
	CommunityRankWithin = model.RankSpec{
		Name:    model.HeaderCommunityRankWithin,
		GroupBy: []model.Column{model.ColumnStage, model.ColumnCommunity},
		Value:   model.ColumnNormCase,
		Agg:     model.AggMedian,
		SortBy:  []model.Column{model.ColumnStage},
		Within:  model.ColumnStage,
	}
	ActivityRankOverall = model.RankSpec{
		Name:    model.HeaderActivityRankOverall,
		GroupBy: []model.Column{model.ColumnCommunityRankOverall, model.ColumnActivity},
		Value:   model.ColumnNormCase,
		Agg:     model.AggMedian,
		SortBy:  []model.Column{model.ColumnCommunityRankOverall},
	}
	ActivityRankWithin = model.RankSpec{
		Name:    model.HeaderActivityRankWithin,
		GroupBy: []model.Column{model.ColumnCommunityRankOverall, model.ColumnActivity},
		Value:   model.ColumnNormLog,
		Agg:     model.AggMedian,
		SortBy:  []model.Column{model.ColumnCommunityRankOverall},
		Within:  model.ColumnCommunityRankOverall,
	}
)

func positionOf(cols []model.Column, col model.Column) int {
	for i, c := range cols {
		if c == col {
			return i
		}
	}
	return -1
}

// Validate rejects specs the engine cannot evaluate.
func (s *Ranking) Validate(spec *model.RankSpec) error {
	if !spec.Agg.Valid() {
		return flowerr.ErrInvalidConfig.Msg("rank %s: aggregation kind must be one of mean, median, min, max, got %d", spec.Name, int(spec.Agg))
	}
	if len(spec.GroupBy) == 0 || len(spec.GroupBy) > model.MaxKeyWidth {
		return flowerr.ErrInvalidConfig.Msg("rank %s: expect 1 to %d group-by columns, got %d", spec.Name, model.MaxKeyWidth, len(spec.GroupBy))
	}
	if !spec.Value.Numeric() {
		return flowerr.ErrInvalidConfig.Msg("rank %s: value column %s is not a time measure", spec.Name, spec.Value)
	}
	for _, col := range spec.SortBy {
		if positionOf(spec.GroupBy, col) < 0 {
			return flowerr.ErrInvalidConfig.Msg("rank %s: sort column %s is not grouped by", spec.Name, col)
		}
	}
	if spec.Within != model.ColumnNone && positionOf(spec.GroupBy, spec.Within) < 0 {
		return flowerr.ErrInvalidConfig.Msg("rank %s: restart column %s is not grouped by", spec.Name, spec.Within)
	}
	return nil
}

func aggregate(values []float64, kind model.AggKind) null.Float {
	switch kind {
	case model.AggMean:
		return util.Mean(values)
	case model.AggMedian:
		return util.Median(values)
	case model.AggMin:
		return util.Min(values)
	case model.AggMax:
		return util.Max(values)
	}
	return null.Float{}
}

// Rank aggregates spec.Value per group, sorts groups by the sort columns
// (the group-by columns unless overridden) and then the aggregate, and numbers
// them from zero, restarting for every value of spec.Within if set. Groups
// with an unranked key cell are left out.
func (s *Ranking) Rank(l *model.EventLog, spec model.RankSpec) (*model.RankTable, error) {
	if err := s.Validate(&spec); err != nil {
		return nil, err
	}
	width := len(spec.GroupBy)

	var groups []linq.Group
	linq.From(l.Events).
		WhereT(func(ev *model.Event) bool { return !ev.KeyOf(spec.GroupBy).HasNull(width) }).
		GroupByT(
			func(ev *model.Event) model.Key { return ev.KeyOf(spec.GroupBy) },
			func(ev *model.Event) float64 { return ev.Value(spec.Value) },
		).
		ToSlice(&groups)

	rows := make([]model.RankRow, 0, len(groups))
	for _, g := range groups {
		values := make([]float64, len(g.Group))
		for i, v := range g.Group {
			values[i] = v.(float64)
		}
		rows = append(rows, model.RankRow{
			Key:       g.Key.(model.Key),
			Aggregate: aggregate(values, spec.Agg).Float64,
		})
	}

	sortBy := spec.SortBy
	if len(sortBy) == 0 {
		sortBy = spec.GroupBy
	}
	sortPos := make([]int, len(sortBy))
	for i, col := range sortBy {
		sortPos[i] = positionOf(spec.GroupBy, col)
	}

	// group keys first, so ties on the sort columns and aggregate keep key order
	sort.Slice(rows, func(i, j int) bool { return keyLess(rows[i].Key, rows[j].Key, width) })
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for _, p := range sortPos {
			if a.Key[p] != b.Key[p] {
				return a.Key[p].Less(b.Key[p])
			}
		}
		return a.Aggregate < b.Aggregate
	})

	if spec.Within == model.ColumnNone {
		for i := range rows {
			rows[i].Rank = i
		}
	} else {
		p := positionOf(spec.GroupBy, spec.Within)
		counters := make(map[model.Cell]int)
		for i := range rows {
			c := rows[i].Key[p]
			rows[i].Rank = counters[c]
			counters[c]++
		}
	}

	log.Trace().
		Str("evt.name", "pipeline.rank").
		Str("rank", spec.Name).
		Int("groups", len(rows)).
		Msg("ranked groups")

	return model.NewRankTable(spec, rows), nil
}

func keyLess(a, b model.Key, width int) bool {
	for i := 0; i < width; i++ {
		if a[i] != b[i] {
			return a[i].Less(b[i])
		}
	}
	return false
}

// Join writes the rank of every event's group through set. Events whose key is
// missing from the table receive an invalid rank. It returns how many did.
func (s *Ranking) Join(l *model.EventLog, table *model.RankTable, set func(ev *model.Event, rank null.Int)) int {
	unranked := 0
	for _, ev := range l.Events {
		rank, ok := table.Lookup(ev.KeyOf(table.Spec.GroupBy))
		if !ok {
			set(ev, null.Int{})
			unranked++
			continue
		}
		set(ev, null.IntFrom(int64(rank)))
	}
	return unranked
}

// RankAll computes the four standard ranks in dependency order and joins each
// one before the next is computed.
func (s *Ranking) RankAll(l *model.EventLog) ([]*model.RankTable, error) {
	steps := []struct {
		spec model.RankSpec
		set  func(ev *model.Event, rank null.Int)
	}{
		{CommunityRankOverall, func(ev *model.Event, r null.Int) { ev.CommunityRankOverall = r }},
		{CommunityRankWithin, func(ev *model.Event, r null.Int) { ev.CommunityRankWithin = r }},
		{ActivityRankOverall, func(ev *model.Event, r null.Int) { ev.ActivityRankOverall = r }},
		{ActivityRankWithin, func(ev *model.Event, r null.Int) { ev.ActivityRankWithin = r }},
	}

	tables := make([]*model.RankTable, 0, len(steps))
	for _, step := range steps {
		table, err := s.Rank(l, step.spec)
		if err != nil {
			return nil, err
		}
		unranked := s.Join(l, table, step.set)
		if unranked > 0 {
			log.Debug().
				Str("evt.name", "pipeline.rank.unranked").
				Str("rank", step.spec.Name).
				Int("events", unranked).
				Msg("events without rank")
		}
		tables = append(tables, table)
	}
	return tables, nil
}
