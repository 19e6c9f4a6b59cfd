package model

import (
	"gopkg.in/guregu/null.v3"
)

// QuantileLevels are the levels reported by every distribution Summary.
var QuantileLevels = []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 1.0}

// Summary describes a sample distribution. An invalid field means the
// aggregate is undefined for the sample (e.g. skew of fewer than three values).
type Summary struct {
	N         int          `json:"n"`
	Mean      null.Float   `json:"mean"`
	Median    null.Float   `json:"median"`
	Var       null.Float   `json:"var"`
	Std       null.Float   `json:"std"`
	Skew      null.Float   `json:"skew"`
	Quantiles []null.Float `json:"quantiles"`
}

// BehaviorClass is the temporal behavior of an activity.
type BehaviorClass string

const (
	// BehaviorUnclassified is assigned when a required aggregate is undefined.
	BehaviorUnclassified BehaviorClass = ""
	// BehaviorO1 occurs about once per case at a stable position.
	BehaviorO1 BehaviorClass = "O1"
	// BehaviorO2 occurs about once per case at a varying position.
	BehaviorO2 BehaviorClass = "O2"
	// BehaviorM1 repeats within cases at a stable position.
	BehaviorM1 BehaviorClass = "M1"
	// BehaviorM2 repeats within cases at a varying position.
	BehaviorM2 BehaviorClass = "M2"
)

// CoalescingClass tells which occurrence of a repeated activity is kept.
type CoalescingClass string

const (
	CoalesceNone  CoalescingClass = ""
	CoalesceFirst CoalescingClass = "first"
	CoalesceLast  CoalescingClass = "last"
)

func (c CoalescingClass) Valid() bool {
	return c == CoalesceFirst || c == CoalesceLast
}

// ActivityStats is recomputed every time coalescing runs and never persisted.
type ActivityStats struct {
	Activity string `json:"activity"`

	// FreqLogAbsolute is the total number of occurrences in the log.
	FreqLogAbsolute int `json:"freqLogAbsolute"`

	// FreqPerCase summarizes occurrence counts over the cases containing the activity.
	FreqPerCase Summary `json:"freqPerCase"`
	// PosLog summarizes log-normalized positions.
	PosLog Summary `json:"posLog"`
	// PosCase summarizes case-normalized positions.
	PosCase Summary `json:"posCase"`

	Behavior   BehaviorClass   `json:"behavior"`
	Coalescing CoalescingClass `json:"coalescing"`
}
