package model

// LogStatistics describes an (enhanced) event log.
type LogStatistics struct {
	LogName          string `json:"log_name" yaml:"log_name"`
	NumCases         int    `json:"num_cases" yaml:"num_cases"`
	NumEvents        int    `json:"num_events" yaml:"num_events"`
	NumActivities    int    `json:"num_activities" yaml:"num_activities"`
	NumRepActivities int    `json:"num_comtactivities" yaml:"num_comtactivities"`
	NumStages        int    `json:"num_stages" yaml:"num_stages"`
	NumCommunities   int    `json:"num_communities" yaml:"num_communities"`
}

// GraphStatistics describes an assembled directly-follows graph.
type GraphStatistics struct {
	LogName            string `json:"log_name" yaml:"log_name"`
	NumNodes           int    `json:"num_nodes" yaml:"num_nodes"`
	NumEdges           int    `json:"num_edges" yaml:"num_edges"`
	NumCycles          int    `json:"num_cycles" yaml:"num_cycles"`
	NumSelfLoops       int    `json:"num_selfloops" yaml:"num_selfloops"`
	SumSelfLoopsWeight int    `json:"sum_selfloops_weight" yaml:"sum_selfloops_weight"`
}

// Evaluation merges log and graph statistics of one configuration.
type Evaluation struct {
	LogStatistics
	Graph GraphStatistics `json:"graph" yaml:"graph"`
}
