package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"exusiai.dev/stageflow/internal/app/appconfig"
)

// envFlag is a CLI flag that overrides one environment option for the run.
type envFlag struct {
	name  string
	env   string
	usage string
	kind  string
}

func envName(field string) string {
	return strings.ToUpper(appconfig.EnvPrefix + "_" + field)
}

var pipelineFlags = []envFlag{
	{"stages", envName("NUM_STAGES"), "number of stages case-relative time is split into", "int"},
	{"threshold", envName("DEPENDENCY_THRESHOLD"), "minimum dependency measure (exclusive) of an edge", "float"},
	{"comm-ranks", envName("NUM_COMM_RANKS"), "number of representative communities, 0 keeps all", "int"},
	{"act-ranks", envName("NUM_ACT_RANKS"), "number of representative activities per community, 0 keeps all", "int"},
	{"hide-common", envName("HIDE_COMMON_ACTIVITIES"), "show an activity only in the stage most cases contain it in", "bool"},
	{"rank-scope", envName("COMMUNITY_RANK_SCOPE"), "community rank bounded by --comm-ranks: overall or within", "string"},
	{"hidden-label", envName("HIDDEN_LABEL_MODE"), "name of hidden activities: stage+name or stage", "string"},
	{"freq-mean-threshold", envName("FREQ_MEAN_THRESHOLD"), "largest mean occurrences per case of an occasional activity", "float"},
	{"pos-std-threshold", envName("POS_STD_THRESHOLD"), "largest position deviation of a stable activity", "float"},
	{"stage-concurrency", envName("STAGE_CONCURRENCY"), "stages detecting communities at once, 0 runs all", "int"},
	{"cycle-bound", envName("CYCLE_LENGTH_BOUND"), "longest cycle counted by evaluation", "int"},
	{"filter-cases", envName("FILTER_CASES"), "keep only the first N cases", "int"},
	{"filter-variants", envName("FILTER_VARIANTS_TOP_K"), "keep only cases of the K most frequent variants", "int"},
	{"lifecycle", envName("LIFECYCLE_ACTIVITIES"), "append lifecycle transitions to activity names", "bool"},
	{"filter", envName("EVENT_FILTER"), "boolean expression events must satisfy to be imported", "string"},
	{"output", envName("OUTPUT_DIR"), "directory run outputs are written to", "string"},
}

// PipelineFlags returns the flags overriding pipeline options.
func PipelineFlags() []cli.Flag {
	flags := make([]cli.Flag, 0, len(pipelineFlags))
	for _, f := range pipelineFlags {
		usage := f.usage + " (env " + f.env + ")"
		switch f.kind {
		case "int":
			flags = append(flags, &cli.IntFlag{Name: f.name, Usage: usage})
		case "float":
			flags = append(flags, &cli.Float64Flag{Name: f.name, Usage: usage})
		case "bool":
			flags = append(flags, &cli.BoolFlag{Name: f.name, Usage: usage})
		default:
			flags = append(flags, &cli.StringFlag{Name: f.name, Usage: usage})
		}
	}
	return flags
}

// ApplyOverrides exports every flag set on the command line to its
// environment variable, so configuration parsing picks it up.
func ApplyOverrides(c *cli.Context) error {
	for _, f := range pipelineFlags {
		if !c.IsSet(f.name) {
			continue
		}
		var value string
		switch f.kind {
		case "bool":
			value = "false"
			if c.Bool(f.name) {
				value = "true"
			}
		default:
			value = fmt.Sprint(c.Value(f.name))
		}
		if err := os.Setenv(f.env, value); err != nil {
			return err
		}
	}
	return nil
}
