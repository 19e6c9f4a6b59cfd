package model

// Schema names the fields of the imported and exported event log. It is
// built once from configuration and handed to the repositories; the
// pipeline itself works on typed Event fields and never looks up columns
// by name.
type Schema struct {
	CaseField      string
	ActivityField  string
	TimestampField string
	LifecycleField string
}

// DefaultSchema follows the XES standard extension keys.
func DefaultSchema() Schema {
	return Schema{
		CaseField:      "case:concept:name",
		ActivityField:  "concept:name",
		TimestampField: "time:timestamp",
		LifecycleField: "lifecycle:transition",
	}
}

// Derived column headers used when the enhanced log is exported.
const (
	HeaderRelSeconds           = "time:relative:seconds"
	HeaderLogSeconds           = "time:relative:seconds:log"
	HeaderNormCase             = "time:relative:normalized:case"
	HeaderNormLog              = "time:relative:normalized:log"
	HeaderOrder                = "order:position"
	HeaderMaxOrder             = "order:position:max"
	HeaderIgnore               = "events:ignore"
	HeaderStage                = "stage:number"
	HeaderCommunity            = "community:number"
	HeaderCommunityRankOverall = "community_rank_overall"
	HeaderCommunityRankWithin  = "community_rank_within"
	HeaderActivityRankOverall  = "activity_rank_overall"
	HeaderActivityRankWithin   = "activity_rank_within"
	HeaderCommon               = "common_activities"
	HeaderRepresentative       = "concept:name:rep"
	HeaderMultiActivity        = "concept:name:multiact"
	HeaderMultiCommunity       = "concept:name:communities"
)
