package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/stageflow/internal/model"
)

func renderModel() *model.ConciseModel {
	return &model.ConciseModel{
		Edges: []model.DFGEdge{
			{Source: "0", Target: "1-2", Frequency: 3},
			{Source: "1-2", Target: "1-2", Frequency: 1},
		},
		Start: map[string]int{"0": 3},
		End:   map[string]int{"1-2": 3},
		StageCommunities: []model.StageCommunities{
			{Stage: 0, Communities: []string{"0"}},
			{Stage: 1, Communities: []string{"1-2"}},
		},
		CommunityActivities: []model.CommunityActivities{
			{Community: "0", Activities: []string{"A<B"}},
			{Community: "1-2", Activities: []string{"_1_C", "D"}},
		},
	}
}

func TestRenderDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRender().DOT(&buf, renderModel(), RenderOptions{}))
	dot := buf.String()

	assert.Contains(t, dot, "digraph G {")
	assert.Contains(t, dot, `"stage_0" -> "stage_1" [style=bold arrowhead=none];`)
	assert.Contains(t, dot, `"comm_0" -> "comm_1-2" [label="3"];`)
	assert.Contains(t, dot, `"comm_1-2" -> "comm_1-2" [label="1"];`)
	assert.Contains(t, dot, `start -> "comm_0" [style=dashed arrowhead=none label="3"];`)
	assert.Contains(t, dot, `"comm_1-2" -> end [style=dashed arrowhead=none label="3"];`)
	assert.Contains(t, dot, "A&lt;B")
	assert.Contains(t, dot, "_1_C")
}

func TestRenderDOTHidesHiddenActivities(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRender().DOT(&buf, renderModel(), RenderOptions{HideHiddenActivities: true}))

	assert.NotContains(t, buf.String(), "_1_C")
	assert.Contains(t, buf.String(), "<TD>D</TD>")
}

func TestRenderDOTMergesUnrankedCommunities(t *testing.T) {
	m := &model.ConciseModel{
		Edges: []model.DFGEdge{
			{Source: "0", Target: model.UnrankedLabel, Frequency: 2},
			{Source: model.UnrankedLabel, Target: model.UnrankedLabel, Frequency: 1},
		},
		StageCommunities: []model.StageCommunities{
			{Stage: 0, Communities: []string{"0", model.UnrankedLabel}},
			{Stage: 1, Communities: []string{model.UnrankedLabel}},
		},
		CommunityActivities: []model.CommunityActivities{
			{Community: "0", Activities: []string{"A"}},
			{Community: model.UnrankedLabel, Activities: []string{"_0_B", "_1_C"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRender().DOT(&buf, m, RenderOptions{}))
	dot := buf.String()

	assert.Contains(t, dot, `{ rank=same; "stage_0"; "comm_0"; "comm_unranked" }`)
	assert.Contains(t, dot, `{ rank=same; "stage_1"; "comm_unranked" }`)
	assert.Contains(t, dot, `"comm_0" -> "comm_unranked" [label="2"];`)
	assert.Contains(t, dot, `"comm_unranked" -> "comm_unranked" [label="1"];`)
	// both stages share one node, so its activities are listed in each declaration
	assert.Equal(t, 2, strings.Count(dot, `"comm_unranked" [shape=none`))
	assert.Equal(t, 2, strings.Count(dot, "<TD>_1_C</TD>"))
}
