package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	cliapp "exusiai.dev/stageflow/cmd/app/cli"
	"exusiai.dev/stageflow/cmd/app/cli/discover"
	"exusiai.dev/stageflow/cmd/app/cli/evaluate"
	"exusiai.dev/stageflow/cmd/app/cli/inspect"
	"exusiai.dev/stageflow/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "stageflow",
		Usage:       "discover concise multi-stage process models from event logs",
		Description: "Classifies and coalesces repeating activities, splits case-relative time into stages, groups activities into communities per stage and renders a directly-follows graph over representative communities.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			discover.Command(cliapp.DepsFn[discover.CommandDeps]()),
			evaluate.Command(cliapp.DepsFn[evaluate.CommandDeps]()),
			inspect.Command(cliapp.DepsFn[inspect.CommandDeps]()),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
