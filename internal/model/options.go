package model

// PipelineOptions are the knobs of one pipeline run. They come from the
// environment for a discover run and from a grid entry for evaluation runs.
type PipelineOptions struct {
	// NumStages is the number of equal-width stages over case-normalized time.
	// Values <= 1 put every event in stage 0.
	NumStages int `yaml:"num_stages" json:"numStages" validate:"gte=0"`

	// DependencyThreshold is the exclusive minimum dependency measure of an edge.
	DependencyThreshold float64 `yaml:"dependency_threshold" json:"dependencyThreshold" validate:"gte=-1,lte=1"`

	// NumCommRanks keeps the first N communities as representative. 0 keeps all.
	NumCommRanks int `yaml:"num_comm_ranks" json:"numCommRanks" validate:"gte=0"`

	// NumActRanks keeps the first N activities of each community. 0 keeps all.
	NumActRanks int `yaml:"num_act_ranks" json:"numActRanks" validate:"gte=0"`

	// HideCommonActivities keeps an activity only in the stage where most cases contain it.
	HideCommonActivities bool `yaml:"hide_common_activities" json:"hideCommonActivities"`

	// CommunityRankScope selects the community rank bounded by NumCommRanks.
	CommunityRankScope RankScope `yaml:"community_rank_scope" json:"communityRankScope" validate:"rankscope"`

	// FreqMeanThreshold is the largest mean occurrences per case of an occasional activity.
	FreqMeanThreshold float64 `yaml:"freq_mean_threshold" json:"freqMeanThreshold" validate:"gt=0"`

	// PosStdThreshold is the largest position standard deviation of a stable activity.
	PosStdThreshold float64 `yaml:"pos_std_threshold" json:"posStdThreshold" validate:"gte=0"`

	// HiddenLabelMode names hidden activities in multi-activity labels: "stage+name"
	// gives "_<stage>_<activity>", "stage" gives the stage number only.
	HiddenLabelMode string `yaml:"hidden_label_mode" json:"hiddenLabelMode" validate:"omitempty,caseinsensitiveoneof=stage+name stage"`

	// CoalesceResetIgnore clears previous ignore flags before marking.
	CoalesceResetIgnore bool `yaml:"coalesce_reset_ignore" json:"coalesceResetIgnore"`

	// CoalesceDropEvents removes ignored events right after marking.
	CoalesceDropEvents bool `yaml:"coalesce_drop_events" json:"coalesceDropEvents"`

	// StageConcurrency bounds concurrent per-stage community detection. 0 runs all stages at once.
	StageConcurrency int `yaml:"stage_concurrency" json:"stageConcurrency" validate:"gte=0"`

	// CycleLengthBound bounds the length of cycles counted by evaluation.
	CycleLengthBound int `yaml:"cycle_length_bound" json:"cycleLengthBound" validate:"gte=1"`
}

// DefaultPipelineOptions are the defaults of the STAGEFLOW_* environment.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		NumStages:           2,
		DependencyThreshold: 0.5,
		CommunityRankScope:  RankScopeOverall,
		HiddenLabelMode:     LabelStageName.String(),
		FreqMeanThreshold:   1.1,
		PosStdThreshold:     0.15,
		CycleLengthBound:    5,
	}
}
