package service

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/bininfo"
	"exusiai.dev/stageflow/internal/pkg/flog"
	"exusiai.dev/stageflow/internal/repo"
)

// Output file names of a discover run.
const (
	FileEnhancedLog = "enhanced_log.csv"
	FileModel       = "model.json"
	FileModelDOT    = "model.dot"
	FileEvaluation  = "evaluation.json"
	FileActivities  = "activities.json"
	FileSnapshot    = "snapshot.msgpack"
	FileGrid        = "evaluations.json"
)

// Run ties the pipeline to its inputs and outputs.
type Run struct {
	Config       *appconfig.Config
	EventLogRepo *repo.EventLog
	SnapshotRepo *repo.Snapshot
	OutputRepo   *repo.Output
	GridRepo     *repo.Grid
	Pipeline     *Pipeline
	Render       *Render
	Archive      *Archive
	Evaluation   *Evaluation
}

func NewRun(
	conf *appconfig.Config,
	eventLogRepo *repo.EventLog,
	snapshotRepo *repo.Snapshot,
	outputRepo *repo.Output,
	gridRepo *repo.Grid,
	pipeline *Pipeline,
	render *Render,
	archive *Archive,
	evaluation *Evaluation,
) *Run {
	return &Run{
		Config:       conf,
		EventLogRepo: eventLogRepo,
		SnapshotRepo: snapshotRepo,
		OutputRepo:   outputRepo,
		GridRepo:     gridRepo,
		Pipeline:     pipeline,
		Render:       render,
		Archive:      archive,
		Evaluation:   evaluation,
	}
}

// DiscoverOutput locates the artifacts of a discover run.
type DiscoverOutput struct {
	RunID  string
	Dir    string
	Result *Result
}

// Discover runs the pipeline over the log at input and writes every artifact
// into a fresh run directory below outputDir.
func (s *Run) Discover(ctx context.Context, input, outputDir string, opts model.PipelineOptions, renderOpts RenderOptions) (*DiscoverOutput, error) {
	runID := xid.New()
	ctx = flog.CtxWithID(ctx, runID)
	logger := flog.FromCtx(ctx)

	l, err := s.EventLogRepo.Load(input)
	if err != nil {
		return nil, err
	}

	res, err := s.Pipeline.Run(ctx, l, opts)
	if err != nil {
		return nil, err
	}

	out := &DiscoverOutput{
		RunID:  runID.String(),
		Dir:    filepath.Join(outputDir, l.Name+"_"+runID.String()),
		Result: res,
	}

	if err := s.EventLogRepo.Save(filepath.Join(out.Dir, FileEnhancedLog), res.Log); err != nil {
		return nil, err
	}
	if err := s.OutputRepo.SaveJSON(filepath.Join(out.Dir, FileModel), res.Model); err != nil {
		return nil, err
	}
	if err := s.OutputRepo.SaveJSON(filepath.Join(out.Dir, FileEvaluation), res.Evaluation); err != nil {
		return nil, err
	}
	if err := s.OutputRepo.SaveJSON(filepath.Join(out.Dir, FileActivities), res.Activities); err != nil {
		return nil, err
	}

	var dot bytes.Buffer
	if err := s.Render.DOT(&dot, res.Model, renderOpts); err != nil {
		return nil, err
	}
	if err := s.OutputRepo.SaveBytes(filepath.Join(out.Dir, FileModelDOT), dot.Bytes()); err != nil {
		return nil, err
	}

	snapshot := &model.Snapshot{
		RunID:     out.RunID,
		CreatedAt: time.Now(),
		Version:   bininfo.Version,
		Options:   opts,
		Log:       res.Log,
	}
	if err := s.SnapshotRepo.Save(filepath.Join(out.Dir, FileSnapshot), snapshot); err != nil {
		return nil, err
	}

	if err := s.Archive.ArchiveRun(ctx, res); err != nil {
		return nil, errors.Wrap(err, "failed to archive run")
	}

	logger.Info().
		Str("evt.name", "run.discover").
		Str("dir", out.Dir).
		Msg("wrote run outputs")
	return out, nil
}

// EvaluateGrid runs every configuration of the grid at gridPath against the
// log at input. Evaluations keep the order of the grid and are named after
// their run.
func (s *Run) EvaluateGrid(ctx context.Context, input, gridPath string, base model.PipelineOptions) ([]model.Evaluation, error) {
	grid, err := s.GridRepo.Load(gridPath, base)
	if err != nil {
		return nil, err
	}
	l, err := s.EventLogRepo.Load(input)
	if err != nil {
		return nil, err
	}

	evaluations := make([]model.Evaluation, len(grid.Runs))
	eg, ctx := errgroup.WithContext(ctx)
	limit := grid.Concurrency
	if limit <= 0 {
		limit = 1
	}
	eg.SetLimit(limit)
	for i, run := range grid.Runs {
		i, run := i, run
		eg.Go(func() error {
			res, err := s.Pipeline.Run(ctx, l, run.Options)
			if err != nil {
				return errors.Wrapf(err, "grid run %s failed", run.Name)
			}
			ev := res.Evaluation
			ev.LogName = run.Name
			ev.Graph.LogName = run.Name
			evaluations[i] = ev
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log.Info().
		Str("evt.name", "run.evaluate").
		Str("log", l.Name).
		Int("runs", len(evaluations)).
		Msg("evaluated grid")
	return evaluations, nil
}

// Inspect recomputes the log statistics of a saved snapshot.
func (s *Run) Inspect(path string) (*model.Snapshot, model.LogStatistics, error) {
	snapshot, err := s.SnapshotRepo.Load(path)
	if err != nil {
		return nil, model.LogStatistics{}, err
	}
	if !SameMajorVersion(snapshot.Version, bininfo.Version) {
		log.Warn().
			Str("evt.name", "run.inspect.version").
			Str("snapshot", snapshot.Version).
			Str("binary", bininfo.Version).
			Msg("snapshot was written by another major version")
	}
	return snapshot, s.Evaluation.LogStatistics(snapshot.Log), nil
}

// SameMajorVersion reports whether two semantic versions share their major
// version. Versions that are not valid semver never conflict.
func SameMajorVersion(a, b string) bool {
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return true
	}
	return semver.Major(a) == semver.Major(b)
}
