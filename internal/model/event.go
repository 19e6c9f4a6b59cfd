package model

import (
	"sort"
	"time"

	"gopkg.in/guregu/null.v3"
)

// HiddenLabel replaces the name of an activity that is not representative.
const HiddenLabel = "hidden"

// UnrankedLabel is rendered for events whose community rank is missing.
const UnrankedLabel = "unranked"

type Event struct {
	CaseID    string    `json:"caseId" msgpack:"case"`
	Activity  string    `json:"activity" msgpack:"act"`
	Timestamp time.Time `json:"timestamp" msgpack:"ts"`

	// RelSeconds is the whole number of seconds since the first event of the case.
	RelSeconds int64 `json:"relSeconds" msgpack:"rel"`
	// LogSeconds is ln(RelSeconds + 1).
	LogSeconds float64 `json:"logSeconds" msgpack:"lrel"`
	// NormLog is RelSeconds min-max normalized over the whole log.
	NormLog float64 `json:"normLog" msgpack:"nlog"`
	// NormCase is RelSeconds min-max normalized within the case.
	NormCase float64 `json:"normCase" msgpack:"ncase"`

	// Order is the zero-based occurrence index of the activity within its case.
	Order int `json:"order" msgpack:"ord"`
	// MaxOrder is the largest Order of the (case, activity) pair.
	MaxOrder int `json:"maxOrder" msgpack:"mord"`

	Ignore bool `json:"ignore" msgpack:"ign"`

	Stage     int      `json:"stage" msgpack:"stg"`
	Community null.Int `json:"community" msgpack:"comm"`

	CommunityRankOverall null.Int `json:"communityRankOverall" msgpack:"cro"`
	CommunityRankWithin  null.Int `json:"communityRankWithin" msgpack:"crw"`
	ActivityRankOverall  null.Int `json:"activityRankOverall" msgpack:"aro"`
	ActivityRankWithin   null.Int `json:"activityRankWithin" msgpack:"arw"`

	Common bool `json:"common" msgpack:"cmn"`

	Representative string `json:"representative" msgpack:"rep"`
	MultiActivity  string `json:"multiActivity" msgpack:"mact"`
	MultiCommunity string `json:"multiCommunity" msgpack:"mcomm"`
}

// EventLog is the event table owned by the pipeline driver. Steps receive it
// by exclusive reference and mutate derived fields in place.
type EventLog struct {
	Name   string   `json:"name" msgpack:"name"`
	Events []*Event `json:"events" msgpack:"events"`
}

func NewEventLog(name string, events []*Event) *EventLog {
	return &EventLog{Name: name, Events: events}
}

// Clone returns a deep copy. Event holds no reference fields so copying each
// struct is enough.
func (l *EventLog) Clone() *EventLog {
	events := make([]*Event, len(l.Events))
	for i, ev := range l.Events {
		cp := *ev
		events[i] = &cp
	}
	return &EventLog{Name: l.Name, Events: events}
}

func (l *EventLog) Len() int {
	return len(l.Events)
}

// SortByCaseAndTime orders events by case identifier and timestamp. The sort
// is stable so simultaneous events keep their input order.
func (l *EventLog) SortByCaseAndTime() {
	sort.SliceStable(l.Events, func(i, j int) bool {
		a, b := l.Events[i], l.Events[j]
		if a.CaseID != b.CaseID {
			return a.CaseID < b.CaseID
		}
		return a.Timestamp.Before(b.Timestamp)
	})
}

// Cases groups events by case identifier preserving event order. The returned
// case ids are in first-appearance order.
func (l *EventLog) Cases() ([]string, map[string][]*Event) {
	ids := make([]string, 0)
	byCase := make(map[string][]*Event)
	for _, ev := range l.Events {
		if _, ok := byCase[ev.CaseID]; !ok {
			ids = append(ids, ev.CaseID)
		}
		byCase[ev.CaseID] = append(byCase[ev.CaseID], ev)
	}
	return ids, byCase
}

// Filter returns a log sharing the events that satisfy keep.
func (l *EventLog) Filter(keep func(ev *Event) bool) *EventLog {
	events := make([]*Event, 0, len(l.Events))
	for _, ev := range l.Events {
		if keep(ev) {
			events = append(events, ev)
		}
	}
	return &EventLog{Name: l.Name, Events: events}
}

// DropIgnored removes events flagged by coalescing and reports how many were removed.
func (l *EventLog) DropIgnored() int {
	kept := l.Events[:0]
	for _, ev := range l.Events {
		if !ev.Ignore {
			kept = append(kept, ev)
		}
	}
	dropped := len(l.Events) - len(kept)
	for i := len(kept); i < len(l.Events); i++ {
		l.Events[i] = nil
	}
	l.Events = kept
	return dropped
}

// Activities returns the distinct activity names in first-appearance order.
func (l *EventLog) Activities() []string {
	seen := make(map[string]struct{})
	acts := make([]string, 0)
	for _, ev := range l.Events {
		if _, ok := seen[ev.Activity]; ok {
			continue
		}
		seen[ev.Activity] = struct{}{}
		acts = append(acts, ev.Activity)
	}
	return acts
}

// Stages returns the distinct stage numbers in first-appearance order.
func (l *EventLog) Stages() []int {
	seen := make(map[int]struct{})
	stages := make([]int, 0)
	for _, ev := range l.Events {
		if _, ok := seen[ev.Stage]; ok {
			continue
		}
		seen[ev.Stage] = struct{}{}
		stages = append(stages, ev.Stage)
	}
	return stages
}
