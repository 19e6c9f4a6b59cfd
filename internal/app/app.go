package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/app/appcontext"
	"exusiai.dev/stageflow/internal/infra"
	"exusiai.dev/stageflow/internal/pkg/logger"
	"exusiai.dev/stageflow/internal/pkg/observability"
	"exusiai.dev/stageflow/internal/repo"
	"exusiai.dev/stageflow/internal/service"
)

// writeMetricsOnStop dumps the collected metrics once the app stops.
func writeMetricsOnStop(lc fx.Lifecycle, conf *appconfig.Config) {
	if conf.MetricsTextfile == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := observability.WriteTextfile(conf.MetricsTextfile); err != nil {
				log.Error().Err(err).Str("path", conf.MetricsTextfile).Msg("failed to write metrics")
				return err
			}
			log.Debug().Str("path", conf.MetricsTextfile).Msg("wrote metrics")
			return nil
		},
	})
}

func Options(ctx appcontext.Ctx, additionalOpts ...fx.Option) ([]fx.Option, error) {
	conf, err := appconfig.Parse(ctx)
	if err != nil {
		return nil, err
	}

	// logger and configuration are the only two things that are not in the fx graph
	// because some other packages need them to be initialized before fx starts
	logger.Configure(conf)

	baseOpts := []fx.Option{
		// fx meta
		fx.WithLogger(logger.Fx),

		// Misc
		fx.Supply(conf),

		// Infrastructures
		infra.Module(),

		// Repositories
		repo.Module(),

		// Services
		service.Module(),

		fx.Invoke(writeMetricsOnStop),

		// fx Extra Options
		fx.StartTimeout(5 * time.Second),
		fx.StopTimeout(30 * time.Second),
	}

	return append(baseOpts, additionalOpts...), nil
}

func New(ctx appcontext.Ctx, additionalOpts ...fx.Option) (*fx.App, error) {
	opts, err := Options(ctx, additionalOpts...)
	if err != nil {
		return nil, err
	}
	return fx.New(opts...), nil
}
