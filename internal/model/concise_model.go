package model

import (
	"strings"

	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

// LabelMode selects how hidden activities are renamed.
type LabelMode int

const (
	// LabelStageName gives every hidden activity a synthetic id "_<stage>_<activity>".
	LabelStageName LabelMode = iota + 1
	// LabelCommunitySum labels events by community rank, collapsing fully
	// hidden communities of a stage into one range label such as "3-5,7".
	LabelCommunitySum
	// LabelStage labels hidden activities by their stage number only.
	LabelStage
)

var labelModeNames = map[LabelMode]string{
	LabelStageName:    "stage+name",
	LabelCommunitySum: "community_sum",
	LabelStage:        "stage",
}

func (m LabelMode) String() string {
	if name, ok := labelModeNames[m]; ok {
		return name
	}
	return "unknown"
}

func ParseLabelMode(s string) (LabelMode, error) {
	for mode, name := range labelModeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return 0, flowerr.ErrInvalidConfig.Msg("label mode must be one of stage+name, community_sum, stage, got %q", s)
}

// RankScope selects which community rank bounds the representative window.
type RankScope string

const (
	RankScopeOverall RankScope = "overall"
	RankScopeWithin  RankScope = "within"
)

// Decode implements envconfig.Decoder.
func (s *RankScope) Decode(value string) error {
	switch RankScope(strings.ToLower(strings.TrimSpace(value))) {
	case RankScopeOverall, "":
		*s = RankScopeOverall
	case RankScopeWithin:
		*s = RankScopeWithin
	default:
		return flowerr.ErrInvalidConfig.Msg("community rank scope must be overall or within, got %q", value)
	}
	return nil
}

type DFGEdge struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Frequency int    `json:"frequency"`
}

// StageCommunities lists the community labels of a stage ordered by within-stage rank.
type StageCommunities struct {
	Stage       int      `json:"stage"`
	Communities []string `json:"communities"`
}

// CommunityActivities lists the activity labels grouped under a community label.
type CommunityActivities struct {
	Community  string   `json:"community"`
	Activities []string `json:"activities"`
}

// ConciseModel is everything the rendering collaborator consumes.
type ConciseModel struct {
	Edges               []DFGEdge             `json:"edges"`
	Start               map[string]int        `json:"start"`
	End                 map[string]int        `json:"end"`
	StageCommunities    []StageCommunities    `json:"stageCommunities"`
	CommunityActivities []CommunityActivities `json:"communityActivities"`
}

// EdgeMap returns the edges keyed by (source, target).
func (m *ConciseModel) EdgeMap() map[[2]string]int {
	res := make(map[[2]string]int, len(m.Edges))
	for _, e := range m.Edges {
		res[[2]string{e.Source, e.Target}] = e.Frequency
	}
	return res
}
