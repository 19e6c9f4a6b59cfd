package model

// GridRun is one named configuration of an evaluation grid.
type GridRun struct {
	Name    string          `json:"name" validate:"required"`
	Options PipelineOptions `json:"options"`
}

// Grid is a set of configurations evaluated against the same log.
type Grid struct {
	// Concurrency bounds how many runs execute at once. 0 runs them one by one.
	Concurrency int       `json:"concurrency" validate:"gte=0"`
	Runs        []GridRun `json:"runs" validate:"min=1,dive"`
}
