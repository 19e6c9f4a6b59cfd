package infra

import (
	"context"
	"os"
	"path/filepath"

	"github.com/felixge/fgprof"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"exusiai.dev/stageflow/internal/app/appconfig"
)

// Profiler samples on-CPU and off-CPU time of the whole run into a pprof file
// when ProfileOutput is set.
func Profiler(lc fx.Lifecycle, conf *appconfig.Config) error {
	if conf.ProfileOutput == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(conf.ProfileOutput), 0o755); err != nil {
		return errors.Wrap(err, "failed to create profile directory")
	}
	f, err := os.Create(conf.ProfileOutput)
	if err != nil {
		return errors.Wrap(err, "failed to create profile file")
	}

	var stop func() error
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			stop = fgprof.Start(f, fgprof.FormatPprof)
			return nil
		},
		OnStop: func(context.Context) error {
			defer f.Close()
			if stop == nil {
				return nil
			}
			if err := stop(); err != nil {
				return errors.Wrap(err, "failed to write profile")
			}
			log.Info().Str("path", conf.ProfileOutput).Msg("wrote profile")
			return nil
		},
	})
	return nil
}
