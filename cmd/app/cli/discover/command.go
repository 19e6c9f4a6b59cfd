package discover

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "exusiai.dev/stageflow/cmd/app/cli"
	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/service"
)

type CommandDeps struct {
	fx.In

	Config     *appconfig.Config
	RunService *service.Run
}

func Command(depsFn func() (CommandDeps, func(), error)) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "CSV event log to discover a concise model from",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "hide-hidden",
			Usage: "omit hidden activities from community tables of the rendered model",
		},
	}
	return &cli.Command{
		Name:  "discover",
		Usage: "discover a concise multi-stage model from an event log",
		Flags: append(flags, cliapp.PipelineFlags()...),
		Action: func(c *cli.Context) error {
			if err := cliapp.ApplyOverrides(c); err != nil {
				return err
			}
			deps, stop, err := depsFn()
			if err != nil {
				return err
			}
			defer stop()

			out, err := deps.RunService.Discover(
				c.Context,
				c.String("input"),
				deps.Config.OutputDir,
				deps.Config.PipelineOptions(),
				service.RenderOptions{HideHiddenActivities: c.Bool("hide-hidden")},
			)
			if err != nil {
				return err
			}

			ev := out.Result.Evaluation
			log.Info().
				Str("evt.name", "cli.discover").
				Str("run", out.RunID).
				Str("dir", out.Dir).
				Int("stages", ev.NumStages).
				Int("communities", ev.NumCommunities).
				Int("nodes", ev.Graph.NumNodes).
				Int("edges", ev.Graph.NumEdges).
				Msg("discovered concise model")
			fmt.Fprintln(c.App.Writer, out.Dir)
			return nil
		},
	}
}
