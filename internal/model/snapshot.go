package model

import "time"

// Snapshot is an enhanced log saved after a run, so statistics can be
// recomputed without running the pipeline again.
type Snapshot struct {
	RunID     string          `json:"runId" msgpack:"run"`
	CreatedAt time.Time       `json:"createdAt" msgpack:"createdAt"`
	Version   string          `json:"version" msgpack:"version"`
	Options   PipelineOptions `json:"options" msgpack:"options"`
	Log       *EventLog       `json:"log" msgpack:"log"`
}
