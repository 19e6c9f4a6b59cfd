package appconfig

import (
	"github.com/jinzhu/copier"

	"exusiai.dev/stageflow/internal/app/appcontext"
	"exusiai.dev/stageflow/internal/model"
)

type ConfigSpec struct {
	// NumStages is the number of equal-width stages case-relative time is split into.
	// A value of 0 or 1 puts every event into stage 0.
	NumStages int `split_words:"true" default:"2" validate:"gte=0"`

	// DependencyThreshold is the minimum dependency measure (exclusive) an edge of a
	// per-stage dependency graph must exceed.
	DependencyThreshold float64 `split_words:"true" default:"0.5" validate:"gte=-1,lte=1"`

	// NumCommRanks is the number of representative communities. 0 keeps all communities.
	NumCommRanks int `split_words:"true" default:"0" validate:"gte=0"`

	// NumActRanks is the number of representative activities per community. 0 keeps all activities.
	NumActRanks int `split_words:"true" default:"0" validate:"gte=0"`

	// HideCommonActivities hides an activity everywhere except the stage in which
	// the most cases contain it.
	HideCommonActivities bool `split_words:"true" default:"false"`

	// CommunityRankScope selects which community rank NumCommRanks applies to.
	// Valid values are: overall (ranks across all stages), within (ranks restart per stage).
	CommunityRankScope model.RankScope `split_words:"true" default:"overall" validate:"rankscope"`

	// FreqMeanThreshold is the largest mean number of occurrences per case for an
	// activity to be classified as occasional (O1/O2).
	FreqMeanThreshold float64 `split_words:"true" default:"1.1" validate:"gt=0"`

	// PosStdThreshold is the largest standard deviation of case-normalized position
	// for an activity to be classified as stable (O1/M1).
	PosStdThreshold float64 `split_words:"true" default:"0.15" validate:"gte=0"`

	// HiddenLabelMode selects how hidden activities are named in multi-activity labels.
	// Valid values are: stage+name ("_<stage>_<activity>"), stage (the stage number only).
	HiddenLabelMode string `split_words:"true" default:"stage+name" validate:"caseinsensitiveoneof=stage+name stage"`

	// CoalesceResetIgnore resets ignore flags before coalescing marks events.
	CoalesceResetIgnore bool `split_words:"true" default:"false"`

	// CoalesceDropEvents drops ignored events immediately after coalescing.
	// Ignored events are always dropped before stages are assigned.
	CoalesceDropEvents bool `split_words:"true" default:"false"`

	// StageConcurrency bounds how many stages run community detection at once.
	// 0 runs every stage concurrently.
	StageConcurrency int `split_words:"true" default:"0" validate:"gte=0"`

	// CycleLengthBound is the longest cycle counted when evaluating a model.
	CycleLengthBound int `split_words:"true" default:"5" validate:"gte=1"`

	// event log schema

	// CaseField is the CSV header of the case identifier column.
	CaseField string `split_words:"true" default:"case:concept:name" validate:"required"`

	// ActivityField is the CSV header of the activity column.
	ActivityField string `split_words:"true" default:"concept:name" validate:"required"`

	// TimestampField is the CSV header of the timestamp column.
	TimestampField string `split_words:"true" default:"time:timestamp" validate:"required"`

	// LifecycleField is the CSV header of the lifecycle transition column. Only read when
	// LifecycleActivities is enabled.
	LifecycleField string `split_words:"true" default:"lifecycle:transition"`

	// TimestampLayouts are tried in order when parsing timestamps. See https://pkg.go.dev/time#pkg-constants
	TimestampLayouts []string `split_words:"true" default:"2006-01-02T15:04:05.999999999Z07:00,2006-01-02 15:04:05.999999999Z07:00,2006-01-02 15:04:05.999999999,2006-01-02T15:04:05.999999999" validate:"min=1"`

	// import-time log simplification

	// LifecycleActivities appends the lifecycle transition to activity names, if the
	// log has more than one distinct transition.
	LifecycleActivities bool `split_words:"true" default:"false"`

	// FilterCases keeps only the first N cases of the log. 0 keeps all.
	FilterCases int `split_words:"true" default:"0" validate:"gte=0"`

	// FilterVariantsTopK keeps only cases of the K most frequent variants. 0 keeps all.
	// Ignored when FilterCases is set.
	FilterVariantsTopK int `split_words:"true" default:"0" validate:"gte=0"`

	// EventFilter is an optional boolean expression over CaseID, Activity and Timestamp.
	// Events for which it evaluates to false are not imported. See https://expr-lang.org
	EventFilter string `split_words:"true"`

	// outputs

	// OutputDir is the directory run outputs are written to, one sub-directory per run.
	OutputDir string `split_words:"true" default:"output" validate:"required"`

	// LogDir is the directory of the rotating log file.
	LogDir string `split_words:"true" default:"logs"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// DevMode to indicate development mode. When true, logs are emitted at trace level.
	DevMode bool `split_words:"true"`

	// MetricsTextfile is the path Prometheus metrics are written to after a run.
	// Leaving this empty will disable writing metrics.
	MetricsTextfile string `split_words:"true"`

	// ProfileOutput is the pprof file wall-clock samples of the run are written to.
	// Leaving this empty will disable profiling.
	ProfileOutput string `split_words:"true"`

	// TracingEnabled to indicate whether to export OpenTelemetry spans of a run.
	TracingEnabled bool `split_words:"true"`

	// TracingOutput is the file spans are written to when tracing is enabled.
	TracingOutput string `split_words:"true" default:"traces.jsonl"`

	// ArchiveS3 is the "bucket/prefix" location run outputs are archived to.
	// Leaving this empty will disable archiving.
	ArchiveS3 S3Location `split_words:"true"`

	// ArchiveS3Region is the AWS region of the archive bucket.
	ArchiveS3Region string `split_words:"true" default:"us-east-1"`

	// AWSAccessKey and AWSSecretKey are static credentials for the archive bucket.
	// When empty, the default AWS credential chain is used.
	AWSAccessKey string `envconfig:"AWS_ACCESS_KEY"`
	AWSSecretKey string `envconfig:"AWS_SECRET_KEY"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}

// PipelineOptions extracts the pipeline knobs of the configuration. Fields
// are matched by name.
func (c *Config) PipelineOptions() model.PipelineOptions {
	var opts model.PipelineOptions
	if err := copier.Copy(&opts, &c.ConfigSpec); err != nil {
		panic(err)
	}
	return opts
}

// Schema returns the field names of the event log.
func (c *Config) Schema() model.Schema {
	var schema model.Schema
	if err := copier.Copy(&schema, &c.ConfigSpec); err != nil {
		panic(err)
	}
	return schema
}
