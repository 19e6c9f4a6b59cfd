package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/model"
)

func assembledLog() *model.EventLog {
	ev := func(caseID string, stage int, within null.Int, comm, act string) *model.Event {
		return &model.Event{CaseID: caseID, Stage: stage, CommunityRankWithin: within, MultiCommunity: comm, MultiActivity: act}
	}
	return model.NewEventLog("assembled", []*model.Event{
		ev("1", 0, null.IntFrom(1), "1", "B"),
		ev("1", 0, null.IntFrom(0), "0", "A"),
		ev("1", 1, null.Int{}, model.UnrankedLabel, "_1_X"),
		ev("1", 1, null.IntFrom(0), "2", "C"),
		ev("2", 0, null.IntFrom(0), "0", "A"),
		ev("2", 0, null.IntFrom(0), "0", "_0_D"),
		ev("2", 1, null.IntFrom(0), "2", "C"),
	})
}

func TestAssemblerStageCommunities(t *testing.T) {
	got := NewAssembler().StageCommunities(assembledLog())
	assert.Equal(t, []model.StageCommunities{
		{Stage: 0, Communities: []string{"0", "1"}},
		{Stage: 1, Communities: []string{"2", model.UnrankedLabel}},
	}, got)
}

func TestAssemblerCommunityActivities(t *testing.T) {
	got := NewAssembler().CommunityActivities(assembledLog())
	assert.Equal(t, []model.CommunityActivities{
		{Community: "0", Activities: []string{"A", "_0_D"}},
		{Community: "1", Activities: []string{"B"}},
		{Community: "2", Activities: []string{"C"}},
		{Community: model.UnrankedLabel, Activities: []string{"_1_X"}},
	}, got)
}

func TestAssemblerAssemble(t *testing.T) {
	m := NewAssembler().Assemble(assembledLog())
	require.NotNil(t, m)

	assert.Equal(t, map[[2]string]int{
		{"1", "0"}:                 1,
		{"0", model.UnrankedLabel}: 1,
		{model.UnrankedLabel, "2"}: 1,
		{"0", "0"}:                 1,
		{"0", "2"}:                 1,
	}, m.EdgeMap())
	assert.Equal(t, map[string]int{"1": 1, "0": 1}, m.Start)
	assert.Equal(t, map[string]int{"2": 2}, m.End)
}
