package evaluate

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "exusiai.dev/stageflow/cmd/app/cli"
	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/repo"
	"exusiai.dev/stageflow/internal/service"
)

type CommandDeps struct {
	fx.In

	Config     *appconfig.Config
	RunService *service.Run
	OutputRepo *repo.Output
}

func Command(depsFn func() (CommandDeps, func(), error)) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "CSV event log to evaluate configurations against",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "grid",
			Aliases:  []string{"g"},
			Usage:    "YAML file of named configurations; options left out use the environment",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "json",
			Usage: "also write the evaluations as JSON to this file",
		},
	}
	return &cli.Command{
		Name:  "evaluate",
		Usage: "compare model statistics of several configurations",
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

			evaluations, err := deps.RunService.EvaluateGrid(c.Context, c.String("input"), c.String("grid"), deps.Config.PipelineOptions())
			if err != nil {
				return err
			}
			if path := c.String("json"); path != "" {
				if err := deps.OutputRepo.SaveJSON(path, evaluations); err != nil {
					return err
				}
			}
			return WriteTable(c.App.Writer, evaluations)
		},
	}
}

// WriteTable prints one row per evaluation.
func WriteTable(w io.Writer, evaluations []model.Evaluation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "log_name\tcases\tevents\tactivities\trep_activities\tstages\tcommunities\tnodes\tedges\tcycles\tselfloops\tselfloop_weight\t")
	for _, ev := range evaluations {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			ev.LogName, ev.NumCases, ev.NumEvents, ev.NumActivities, ev.NumRepActivities, ev.NumStages, ev.NumCommunities,
			ev.Graph.NumNodes, ev.Graph.NumEdges, ev.Graph.NumCycles, ev.Graph.NumSelfLoops, ev.Graph.SumSelfLoopsWeight)
	}
	return tw.Flush()
}
