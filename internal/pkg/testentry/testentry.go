package testentry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"exusiai.dev/stageflow/internal/app"
	"exusiai.dev/stageflow/internal/app/appcontext"
)

// Populate starts the application in test context and fills targets from its
// graph. The application is stopped when the test finishes.
func Populate(t testing.TB, targets ...any) {
	t.Helper()

	// for testing, the fx logger is too annoying. therefore, we use a NopLogger here
	opts, err := app.Options(appcontext.Declare(appcontext.EnvTest),
		fx.NopLogger,
		fx.Populate(targets...),
		fx.Invoke(func() {
			log.Logger = log.Logger.Output(zerolog.NewTestWriter(t))
		}),
	)
	require.NoError(t, err)

	fxApp := fx.New(opts...)
	require.NoError(t, fxApp.Start(context.Background()))
	t.Cleanup(func() {
		_ = fxApp.Stop(context.Background())
	})
}
