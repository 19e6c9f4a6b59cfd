package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestApplyOverrides(t *testing.T) {
	for _, f := range pipelineFlags {
		t.Setenv(f.env, "")
	}

	app := &cli.App{
		Name:  "test",
		Flags: PipelineFlags(),
		Action: func(c *cli.Context) error {
			return ApplyOverrides(c)
		},
	}
	err := app.Run([]string{"test", "--stages", "3", "--threshold", "0.8", "--hide-common", "--rank-scope", "within", "--filter", `Activity != "x"`})
	require.NoError(t, err)

	assert.Equal(t, "3", os.Getenv("STAGEFLOW_NUM_STAGES"))
	assert.Equal(t, "0.8", os.Getenv("STAGEFLOW_DEPENDENCY_THRESHOLD"))
	assert.Equal(t, "true", os.Getenv("STAGEFLOW_HIDE_COMMON_ACTIVITIES"))
	assert.Equal(t, "within", os.Getenv("STAGEFLOW_COMMUNITY_RANK_SCOPE"))
	assert.Equal(t, `Activity != "x"`, os.Getenv("STAGEFLOW_EVENT_FILTER"))
	// flags left out keep the environment as is
	assert.Equal(t, "", os.Getenv("STAGEFLOW_NUM_COMM_RANKS"))
}
