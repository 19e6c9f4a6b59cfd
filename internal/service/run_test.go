package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/app/appcontext"
	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/repo"
)

func testConfig() *appconfig.Config {
	schema := model.DefaultSchema()
	return &appconfig.Config{
		ConfigSpec: appconfig.ConfigSpec{
			CaseField:        schema.CaseField,
			ActivityField:    schema.ActivityField,
			TimestampField:   schema.TimestampField,
			LifecycleField:   schema.LifecycleField,
			TimestampLayouts: []string{time.RFC3339Nano},
		},
		AppContext: appcontext.Declare(appcontext.EnvTest),
	}
}

func newTestRun(conf *appconfig.Config) *Run {
	evaluation := NewEvaluation()
	return NewRun(
		conf,
		repo.NewEventLog(conf),
		repo.NewSnapshot(),
		repo.NewOutput(),
		repo.NewGrid(),
		newTestPipeline(),
		NewRender(),
		NewArchive(conf, nil),
		evaluation,
	)
}

func writeRepeatingCSV(t *testing.T, dir string) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("case:concept:name,concept:name,time:timestamp\n")
	for _, c := range []string{"1", "2"} {
		for _, s := range []step{at("A", 0), at("A", 10), at("B", 30), at("A", 60), at("C", 100)} {
			sb.WriteString(c + "," + s.act + "," + epoch.Add(time.Duration(s.sec)*time.Second).Format(time.RFC3339) + "\n")
		}
	}
	path := filepath.Join(dir, "repeating.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func TestRunDiscoverAndInspect(t *testing.T) {
	dir := t.TempDir()
	input := writeRepeatingCSV(t, dir)
	r := newTestRun(testConfig())

	opts := model.DefaultPipelineOptions()
	opts.DependencyThreshold = 0
	out, err := r.Discover(context.Background(), input, filepath.Join(dir, "out"), opts, RenderOptions{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(out.Dir), "repeating_"))
	for _, name := range []string{FileEnhancedLog, FileModel, FileModelDOT, FileEvaluation, FileActivities, FileSnapshot} {
		assert.FileExists(t, filepath.Join(out.Dir, name))
	}

	csv, err := os.ReadFile(filepath.Join(out.Dir, FileEnhancedLog))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(csv)), "\n"), 7)

	snapshot, stats, err := r.Inspect(filepath.Join(out.Dir, FileSnapshot))
	require.NoError(t, err)
	assert.Equal(t, out.RunID, snapshot.RunID)
	assert.Equal(t, opts, snapshot.Options)
	assert.Equal(t, out.Result.Evaluation.LogStatistics, stats)
}

func TestRunEvaluateGrid(t *testing.T) {
	dir := t.TempDir()
	input := writeRepeatingCSV(t, dir)
	gridPath := filepath.Join(dir, "grid.yaml")
	require.NoError(t, os.WriteFile(gridPath, []byte(`
concurrency: 2
runs:
  - name: one-stage
    options:
      num_stages: 1
  - name: two-stages
`), 0o644))

	base := model.DefaultPipelineOptions()
	base.DependencyThreshold = 0
	evaluations, err := newTestRun(testConfig()).EvaluateGrid(context.Background(), input, gridPath, base)
	require.NoError(t, err)
	require.Len(t, evaluations, 2)

	assert.Equal(t, "one-stage", evaluations[0].LogName)
	assert.Equal(t, "one-stage", evaluations[0].Graph.LogName)
	assert.Equal(t, 1, evaluations[0].NumStages)
	assert.Equal(t, "two-stages", evaluations[1].LogName)
	assert.Equal(t, 2, evaluations[1].NumStages)
}

func TestArchiveDisabled(t *testing.T) {
	conf := testConfig()
	assert.False(t, NewArchive(conf, nil).Enabled())

	conf.ArchiveS3 = appconfig.S3Location{Bucket: "bucket"}
	assert.False(t, NewArchive(conf, nil).Enabled())
	assert.NoError(t, NewArchive(conf, nil).ArchiveRun(context.Background(), &Result{}))
}

func TestSameMajorVersion(t *testing.T) {
	assert.True(t, SameMajorVersion("v1.2.0", "v1.9.3+abc"))
	assert.False(t, SameMajorVersion("v1.2.0", "v2.0.0"))
	assert.True(t, SameMajorVersion("dev", "v2.0.0"))
}
