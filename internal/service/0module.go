package service

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("service", fx.Provide(
		NewRender,
		NewRanking,
		NewArchive,
		NewPipeline,
		NewAssembler,
		NewCommunity,
		NewCoalescer,
		NewEvaluation,
		NewClassifier,
		NewNormalizer,
		NewStageAssigner,
		NewRepresentative,
		NewRun,
	))
}
