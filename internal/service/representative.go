package service

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/util"
)

// Representative decides which activities stay visible and derives the labels
// hidden activities are rendered with.
type Representative struct{}

func NewRepresentative() *Representative {
	return &Representative{}
}

// CommonStages returns, per activity, the stage in which the most distinct
// cases contain it. Ties go to the lowest stage.
func (s *Representative) CommonStages(l *model.EventLog) map[string]int {
	support := make(map[model.StageActivity]map[string]struct{})
	for _, ev := range l.Events {
		k := model.StageActivity{Stage: ev.Stage, Activity: ev.Activity}
		if support[k] == nil {
			support[k] = make(map[string]struct{})
		}
		support[k][ev.CaseID] = struct{}{}
	}

	keys := lo.Keys(support)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Activity != keys[j].Activity {
			return keys[i].Activity < keys[j].Activity
		}
		return keys[i].Stage < keys[j].Stage
	})

	common := make(map[string]int)
	best := make(map[string]int)
	for _, k := range keys {
		n := len(support[k])
		if cur, ok := best[k.Activity]; !ok || n > cur {
			best[k.Activity] = n
			common[k.Activity] = k.Stage
		}
	}
	return common
}

// MarkCommon flags every event that lies in the common stage of its activity.
func (s *Representative) MarkCommon(l *model.EventLog) {
	common := s.CommonStages(l)
	for _, ev := range l.Events {
		ev.Common = common[ev.Activity] == ev.Stage
	}
}

func inWindow(rank null.Int, n int) bool {
	if n < 1 {
		return true
	}
	return rank.Valid && rank.Int64 >= 0 && rank.Int64 < int64(n)
}

// Visible reports whether an event passes the representative mask.
func (s *Representative) Visible(ev *model.Event, opts *model.PipelineOptions) bool {
	if opts.HideCommonActivities && !ev.Common {
		return false
	}
	commRank := ev.CommunityRankOverall
	if opts.CommunityRankScope == model.RankScopeWithin {
		commRank = ev.CommunityRankWithin
	}
	return inWindow(commRank, opts.NumCommRanks) && inWindow(ev.ActivityRankWithin, opts.NumActRanks)
}

// Select sets the representative label of every event: its activity when
// visible, HiddenLabel otherwise. It returns the number of hidden events.
func (s *Representative) Select(l *model.EventLog, opts *model.PipelineOptions) int {
	hidden := 0
	for _, ev := range l.Events {
		if s.Visible(ev, opts) {
			ev.Representative = ev.Activity
			continue
		}
		ev.Representative = model.HiddenLabel
		hidden++
	}
	return hidden
}

// HiddenCommunityRanges maps the overall rank of every fully hidden community
// to the compressed list of all fully hidden community ranks of its stage.
func (s *Representative) HiddenCommunityRanges(l *model.EventLog) map[int64]string {
	type group struct {
		stage int
		rank  int64
	}
	visible := make(map[group]bool)
	for _, ev := range l.Events {
		if !ev.CommunityRankOverall.Valid {
			continue
		}
		g := group{stage: ev.Stage, rank: ev.CommunityRankOverall.Int64}
		visible[g] = visible[g] || ev.Representative != model.HiddenLabel
	}

	byStage := make(map[int][]int)
	for g, vis := range visible {
		if !vis {
			byStage[g.stage] = append(byStage[g.stage], int(g.rank))
		}
	}

	ranges := make(map[int64]string)
	for _, ranks := range byStage {
		label := util.CompressRanges(ranks)
		for _, r := range ranks {
			ranges[int64(r)] = label
		}
	}
	return ranges
}

// Labels renders the representative label of every event in mode.
func (s *Representative) Labels(l *model.EventLog, mode model.LabelMode) ([]string, error) {
	labels := make([]string, l.Len())
	switch mode {
	case model.LabelStageName:
		for i, ev := range l.Events {
			if ev.Representative == model.HiddenLabel {
				labels[i] = "_" + strconv.Itoa(ev.Stage) + "_" + ev.Activity
			} else {
				labels[i] = ev.Representative
			}
		}
	case model.LabelStage:
		for i, ev := range l.Events {
			if ev.Representative == model.HiddenLabel {
				labels[i] = strconv.Itoa(ev.Stage)
			} else {
				labels[i] = ev.Representative
			}
		}
	case model.LabelCommunitySum:
		ranges := s.HiddenCommunityRanges(l)
		for i, ev := range l.Events {
			rank := ev.CommunityRankOverall
			switch {
			case !rank.Valid:
				labels[i] = model.UnrankedLabel
			case ranges[rank.Int64] != "":
				labels[i] = ranges[rank.Int64]
			default:
				labels[i] = strconv.FormatInt(rank.Int64, 10)
			}
		}
	default:
		return nil, flowerr.ErrInvalidConfig.Msg("label mode must be one of stage+name, community_sum, stage, got %d", int(mode))
	}
	return labels, nil
}

// Apply marks common activities, selects representatives and fills the
// multi-activity (HiddenLabelMode) and multi-community (community_sum) labels.
func (s *Representative) Apply(l *model.EventLog, opts *model.PipelineOptions) error {
	s.MarkCommon(l)
	hidden := s.Select(l, opts)

	mode := model.LabelStageName
	if opts.HiddenLabelMode != "" {
		var err error
		if mode, err = model.ParseLabelMode(opts.HiddenLabelMode); err != nil {
			return err
		}
	}

	activities, err := s.Labels(l, mode)
	if err != nil {
		return err
	}
	communities, err := s.Labels(l, model.LabelCommunitySum)
	if err != nil {
		return err
	}
	for i, ev := range l.Events {
		ev.MultiActivity = activities[i]
		ev.MultiCommunity = communities[i]
	}

	log.Debug().
		Str("evt.name", "pipeline.representative").
		Int("hidden", hidden).
		Int("visible", l.Len()-hidden).
		Msg("selected representative activities")
	return nil
}
