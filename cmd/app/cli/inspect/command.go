package inspect

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"exusiai.dev/stageflow/internal/pkg/flowerr"
	"exusiai.dev/stageflow/internal/repo"
	"exusiai.dev/stageflow/internal/service"
)

type CommandDeps struct {
	fx.In

	RunService *service.Run
	OutputRepo *repo.Output
}

func Command(depsFn func() (CommandDeps, func(), error)) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "print log statistics of a saved run snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "snapshot",
				Aliases:  []string{"s"},
				Usage:    "msgpack snapshot written by discover",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "print only the value at this path, e.g. statistics.num_cases (see https://github.com/tidwall/gjson)",
			},
		},
		Action: func(c *cli.Context) error {
			deps, stop, err := depsFn()
			if err != nil {
				return err
			}
			defer stop()

			snapshot, stats, err := deps.RunService.Inspect(c.String("snapshot"))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			err = deps.OutputRepo.WriteJSON(&buf, map[string]interface{}{
				"run":        snapshot.RunID,
				"createdAt":  snapshot.CreatedAt,
				"version":    snapshot.Version,
				"options":    snapshot.Options,
				"statistics": stats,
			})
			if err != nil {
				return err
			}

			query := c.String("query")
			if query == "" {
				_, err = c.App.Writer.Write(buf.Bytes())
				return err
			}
			res := gjson.GetBytes(buf.Bytes(), query)
			if !res.Exists() {
				return flowerr.ErrInvalidInput.Msg("nothing at %q", query)
			}
			_, err = fmt.Fprintln(c.App.Writer, res.String())
			return err
		},
	}
}
