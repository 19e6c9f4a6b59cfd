package repo

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/util"
)

// Grid reads evaluation grids from YAML. Options a run leaves out fall back
// to the base options.
type Grid struct{}

func NewGrid() *Grid {
	return &Grid{}
}

type gridFile struct {
	Concurrency int `yaml:"concurrency"`
	Runs        []struct {
		Name    string    `yaml:"name"`
		Options yaml.Node `yaml:"options"`
	} `yaml:"runs"`
}

func (r *Grid) Read(rd io.Reader, base model.PipelineOptions) (*model.Grid, error) {
	var file gridFile
	if err := yaml.NewDecoder(rd).Decode(&file); err != nil {
		return nil, flowerr.ErrInvalidConfig.Msg("failed to parse grid: %s", err)
	}

	grid := &model.Grid{
		Concurrency: file.Concurrency,
		Runs:        make([]model.GridRun, 0, len(file.Runs)),
	}
	seen := make(map[string]struct{}, len(file.Runs))
	for i, run := range file.Runs {
		opts := base
		if !run.Options.IsZero() {
			if err := run.Options.Decode(&opts); err != nil {
				return nil, flowerr.ErrInvalidConfig.Msg("grid run %d (%s): %s", i, run.Name, err)
			}
		}
		if _, ok := seen[run.Name]; ok {
			return nil, flowerr.ErrInvalidConfig.Msg("grid run name %q is used twice", run.Name)
		}
		seen[run.Name] = struct{}{}
		grid.Runs = append(grid.Runs, model.GridRun{Name: run.Name, Options: opts})
	}

	if err := util.NewValidator().Struct(grid); err != nil {
		return nil, flowerr.NewInvalidViolations(util.Violations(err))
	}
	return grid, nil
}

func (r *Grid) Load(path string, base model.PipelineOptions) (*model.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open grid")
	}
	defer f.Close()
	return r.Read(f, base)
}
