package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/pkg/observability"
	"exusiai.dev/stageflow/internal/util"
)

// Pipeline drives a log through every step, from normalization to evaluation.
// The input log is cloned once; the clone is owned by the run and mutated in
// place by one step at a time.
type Pipeline struct {
	Normalizer     *Normalizer
	Coalescer      *Coalescer
	StageAssigner  *StageAssigner
	Community      *Community
	Ranking        *Ranking
	Representative *Representative
	Assembler      *Assembler
	Evaluation     *Evaluation
	Tracer         trace.Tracer
}

func NewPipeline(
	normalizer *Normalizer,
	coalescer *Coalescer,
	stageAssigner *StageAssigner,
	community *Community,
	ranking *Ranking,
	representative *Representative,
	assembler *Assembler,
	evaluation *Evaluation,
	tracer trace.Tracer,
) *Pipeline {
	return &Pipeline{
		Normalizer:     normalizer,
		Coalescer:      coalescer,
		StageAssigner:  stageAssigner,
		Community:      community,
		Ranking:        ranking,
		Representative: representative,
		Assembler:      assembler,
		Evaluation:     evaluation,
		Tracer:         tracer,
	}
}

// Result is everything one run produces.
type Result struct {
	Options     model.PipelineOptions    `json:"options"`
	Log         *model.EventLog          `json:"-"`
	Activities  []model.ActivityStats    `json:"activities"`
	Graphs      []*model.DependencyGraph `json:"graphs"`
	Communities model.CommunityDict      `json:"communities"`
	Ranks       []*model.RankTable       `json:"-"`
	Model       *model.ConciseModel      `json:"model"`
	Evaluation  model.Evaluation         `json:"evaluation"`
	Duration    time.Duration            `json:"duration"`
}

func (s *Pipeline) step(ctx context.Context, l *model.EventLog, name string, fn func(ctx context.Context) error) error {
	ctx, span := s.Tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	observability.PipelineStepDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	observability.PipelineEvents.WithLabelValues(l.Name, name).Set(float64(l.Len()))
	span.SetAttributes(attribute.Int("events", l.Len()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrapf(err, "pipeline step %s failed", name)
	}

	log.Trace().
		Str("evt.name", "pipeline.step").
		Str("step", name).
		Dur("elapsed", elapsed).
		Int("events", l.Len()).
		Msg("pipeline step finished")
	return nil
}

// Run enhances a copy of input and assembles and evaluates its concise model.
func (s *Pipeline) Run(ctx context.Context, input *model.EventLog, opts model.PipelineOptions) (*Result, error) {
	if err := util.NewValidator().Struct(&opts); err != nil {
		return nil, flowerr.NewInvalidViolations(util.Violations(err))
	}
	if input.Len() == 0 {
		return nil, flowerr.ErrInvalidInput.Msg("event log %q has no events", input.Name)
	}

	ctx, span := s.Tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("log", input.Name),
		attribute.Int("numStages", opts.NumStages),
		attribute.Float64("dependencyThreshold", opts.DependencyThreshold),
	))
	defer span.End()

	start := time.Now()
	l := input.Clone()
	res := &Result{Options: opts, Log: l}

	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"normalize", func(context.Context) error {
			s.Normalizer.Normalize(l)
			return nil
		}},
		{"coalesce", func(context.Context) error {
			stats, err := s.Coalescer.Coalesce(l, &opts)
			res.Activities = stats
			return err
		}},
		{"filter", func(context.Context) error {
			l.DropIgnored()
			return nil
		}},
		{"stage", func(context.Context) error {
			s.StageAssigner.Assign(l, opts.NumStages)
			return nil
		}},
		{"community", func(ctx context.Context) error {
			dict, stages, err := s.Community.Discover(ctx, l, &opts)
			if err != nil {
				return err
			}
			res.Communities = dict
			for _, st := range stages {
				res.Graphs = append(res.Graphs, st.Graph)
			}
			if missing := s.Community.Assign(l, dict); missing > 0 {
				log.Warn().
					Str("evt.name", "pipeline.community.missing").
					Int("events", missing).
					Msg("events without community")
			}
			return nil
		}},
		{"rank", func(context.Context) error {
			tables, err := s.Ranking.RankAll(l)
			res.Ranks = tables
			return err
		}},
		{"represent", func(context.Context) error {
			return s.Representative.Apply(l, &opts)
		}},
		{"assemble", func(context.Context) error {
			res.Model = s.Assembler.Assemble(l)
			return nil
		}},
		{"evaluate", func(context.Context) error {
			res.Evaluation = s.Evaluation.Evaluate(l, res.Model, opts.CycleLengthBound)
			return nil
		}},
	}

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.step(ctx, l, st.name, st.fn); err != nil {
			return nil, err
		}
	}

	res.Duration = time.Since(start)
	observability.PipelineRunDuration.WithLabelValues(l.Name).Observe(res.Duration.Seconds())

	log.Info().
		Str("evt.name", "pipeline.finished").
		Str("log", l.Name).
		Int("events", l.Len()).
		Int("stages", res.Evaluation.NumStages).
		Int("communities", res.Evaluation.NumCommunities).
		Int("edges", res.Evaluation.Graph.NumEdges).
		Dur("elapsed", res.Duration).
		Msg("pipeline finished")

	return res, nil
}
