package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"exusiai.dev/stageflow/internal/app"
	"exusiai.dev/stageflow/internal/app/appcontext"
)

// Start builds and starts the application with module appended. The caller
// must call the returned stop function once done.
func Start(module fx.Option) (stop func(), err error) {
	fxApp, err := app.New(appcontext.Declare(appcontext.EnvCLI), module)
	if err != nil {
		return nil, err
	}
	if err := fxApp.Start(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to start application")
	}
	return func() {
		if err := fxApp.Stop(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to stop application")
		}
	}, nil
}

// DepsFn returns a function that starts the application and populates T.
func DepsFn[T any]() func() (T, func(), error) {
	return func() (T, func(), error) {
		var deps T
		stop, err := Start(fx.Populate(&deps))
		return deps, stop, err
	}
}
