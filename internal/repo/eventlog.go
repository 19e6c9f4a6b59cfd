package repo

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/zeebo/xxh3"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/stageflow/internal/app/appconfig"
	"exusiai.dev/stageflow/internal/model"
	"exusiai.dev/stageflow/internal/pkg/flowerr"
)

// EventLog reads event logs from CSV files and writes enhanced logs back.
type EventLog struct {
	Schema  model.Schema
	Layouts []string
	Import  ImportOptions
}

// ImportOptions simplify a log while it is read.
type ImportOptions struct {
	// LifecycleActivities appends "-<transition>" to activity names when the
	// log carries more than one distinct lifecycle transition.
	LifecycleActivities bool
	// FilterCases keeps the first N cases in order of appearance. 0 keeps all.
	FilterCases int
	// FilterVariantsTopK keeps the cases of the K most frequent variants. 0 keeps
	// all. Ignored when FilterCases is set.
	FilterVariantsTopK int
	// EventFilter is a boolean expression over FilterEnv. Events it rejects are skipped.
	EventFilter string
}

// FilterEnv is the environment event filter expressions are evaluated in.
type FilterEnv struct {
	CaseID    string
	Activity  string
	Lifecycle string
	Timestamp time.Time
}

func NewEventLog(conf *appconfig.Config) *EventLog {
	return &EventLog{
		Schema:  conf.Schema(),
		Layouts: conf.TimestampLayouts,
		Import: ImportOptions{
			LifecycleActivities: conf.LifecycleActivities,
			FilterCases:         conf.FilterCases,
			FilterVariantsTopK:  conf.FilterVariantsTopK,
			EventFilter:         conf.EventFilter,
		},
	}
}

func (r *EventLog) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range r.Layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("timestamp %q matches none of the configured layouts", s)
}

// Load reads the CSV event log at path. The log is named after the file.
func (r *EventLog) Load(path string) (*model.EventLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, flowerr.ErrInvalidInput.Msg("failed to open event log: %s", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.Read(f, name)
}

// Read parses a CSV event log with a header row holding the schema fields.
// Other columns are ignored.
func (r *EventLog) Read(rd io.Reader, name string) (*model.EventLog, error) {
	var filter *vm.Program
	if r.Import.EventFilter != "" {
		program, err := expr.Compile(r.Import.EventFilter, expr.Env(FilterEnv{}), expr.AsBool())
		if err != nil {
			return nil, flowerr.ErrInvalidConfig.Msg("invalid event filter: %s", err)
		}
		filter = program
	}

	cr := csv.NewReader(rd)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, flowerr.ErrInvalidInput.Msg("failed to read header of %s: %s", name, err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	required := []string{r.Schema.CaseField, r.Schema.ActivityField, r.Schema.TimestampField}
	for _, field := range required {
		if _, ok := columns[field]; !ok {
			return nil, flowerr.ErrInvalidInput.Msg("event log %s has no %q column", name, field)
		}
	}
	caseIdx, actIdx, tsIdx := columns[r.Schema.CaseField], columns[r.Schema.ActivityField], columns[r.Schema.TimestampField]
	lcIdx, hasLifecycle := columns[r.Schema.LifecycleField]

	events := make([]*model.Event, 0)
	lifecycles := make([]string, 0)
	skipped := 0
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, flowerr.ErrInvalidInput.Msg("failed to read line %d of %s: %s", line, name, err).WithExtras(flowerr.Extras{"line": line})
		}
		ts, err := r.parseTime(record[tsIdx])
		if err != nil {
			return nil, flowerr.ErrInvalidInput.Msg("line %d of %s: %s", line, name, err).WithExtras(flowerr.Extras{"line": line})
		}
		ev := &model.Event{
			CaseID:    record[caseIdx],
			Activity:  record[actIdx],
			Timestamp: ts,
		}
		lifecycle := ""
		if hasLifecycle {
			lifecycle = record[lcIdx]
		}

		if filter != nil {
			out, err := expr.Run(filter, FilterEnv{CaseID: ev.CaseID, Activity: ev.Activity, Lifecycle: lifecycle, Timestamp: ts})
			if err != nil {
				return nil, flowerr.ErrInvalidConfig.Msg("event filter failed on line %d: %s", line, err)
			}
			if keep, _ := out.(bool); !keep {
				skipped++
				continue
			}
		}
		events = append(events, ev)
		lifecycles = append(lifecycles, lifecycle)
	}

	if r.Import.LifecycleActivities {
		applyLifecycle(events, lifecycles, hasLifecycle)
	}

	l := model.NewEventLog(name, events)
	switch {
	case r.Import.FilterCases > 0:
		l = FirstCases(l, r.Import.FilterCases)
	case r.Import.FilterVariantsTopK > 0:
		l = TopVariants(l, r.Import.FilterVariantsTopK)
	}

	log.Info().
		Str("evt.name", "repo.eventlog.read").
		Str("log", name).
		Int("events", l.Len()).
		Int("filtered", skipped).
		Msg("read event log")
	return l, nil
}

func applyLifecycle(events []*model.Event, lifecycles []string, hasLifecycle bool) {
	if !hasLifecycle {
		log.Info().Msg("no lifecycle column, activities are kept as is")
		return
	}
	if len(lo.Uniq(lifecycles)) <= 1 {
		log.Info().Msg("only one lifecycle transition in log, activities are kept as is")
		return
	}
	for i, ev := range events {
		ev.Activity = ev.Activity + "-" + lifecycles[i]
	}
}

// FirstCases keeps the events of the first n cases in order of appearance.
func FirstCases(l *model.EventLog, n int) *model.EventLog {
	ids, _ := l.Cases()
	if n < len(ids) {
		ids = ids[:n]
	}
	keep := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })
	return l.Filter(func(ev *model.Event) bool {
		_, ok := keep[ev.CaseID]
		return ok
	})
}

// VariantHash fingerprints the time-ordered activity sequence of a case.
func VariantHash(events []*model.Event) uint64 {
	sorted := append([]*model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })
	acts := lo.Map(sorted, func(ev *model.Event, _ int) string { return ev.Activity })
	return xxh3.HashString(strings.Join(acts, "\x1f"))
}

// TopVariants keeps the cases of the k most frequent variants. Variants with
// the same frequency are ranked by first appearance.
func TopVariants(l *model.EventLog, k int) *model.EventLog {
	ids, byCase := l.Cases()
	variantOf := make(map[string]uint64, len(ids))
	counts := make(map[uint64]int)
	order := make([]uint64, 0)
	for _, id := range ids {
		h := VariantHash(byCase[id])
		variantOf[id] = h
		if _, ok := counts[h]; !ok {
			order = append(order, h)
		}
		counts[h]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if k < len(order) {
		order = order[:k]
	}
	keep := lo.SliceToMap(order, func(h uint64) (uint64, struct{}) { return h, struct{}{} })

	log.Debug().
		Str("evt.name", "repo.eventlog.variants").
		Int("variants", len(counts)).
		Int("kept", len(keep)).
		Msg("filtered top variants")

	return l.Filter(func(ev *model.Event) bool {
		_, ok := keep[variantOf[ev.CaseID]]
		return ok
	})
}

func formatNullInt(v null.Int) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Header lists the columns written by Write.
func (r *EventLog) Header() []string {
	return []string{
		r.Schema.CaseField,
		r.Schema.ActivityField,
		r.Schema.TimestampField,
		model.HeaderRelSeconds,
		model.HeaderLogSeconds,
		model.HeaderNormLog,
		model.HeaderNormCase,
		model.HeaderOrder,
		model.HeaderMaxOrder,
		model.HeaderIgnore,
		model.HeaderStage,
		model.HeaderCommunity,
		model.HeaderCommunityRankOverall,
		model.HeaderCommunityRankWithin,
		model.HeaderActivityRankOverall,
		model.HeaderActivityRankWithin,
		model.HeaderCommon,
		model.HeaderRepresentative,
		model.HeaderMultiActivity,
		model.HeaderMultiCommunity,
	}
}

// Write exports an enhanced log as CSV. Missing communities and ranks are
// written as empty cells.
func (r *EventLog) Write(w io.Writer, l *model.EventLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header()); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, ev := range l.Events {
		record := []string{
			ev.CaseID,
			ev.Activity,
			ev.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatInt(ev.RelSeconds, 10),
			strconv.FormatFloat(ev.LogSeconds, 'g', -1, 64),
			strconv.FormatFloat(ev.NormLog, 'g', -1, 64),
			strconv.FormatFloat(ev.NormCase, 'g', -1, 64),
			strconv.Itoa(ev.Order),
			strconv.Itoa(ev.MaxOrder),
			formatBool(ev.Ignore),
			strconv.Itoa(ev.Stage),
			formatNullInt(ev.Community),
			formatNullInt(ev.CommunityRankOverall),
			formatNullInt(ev.CommunityRankWithin),
			formatNullInt(ev.ActivityRankOverall),
			formatNullInt(ev.ActivityRankWithin),
			formatBool(ev.Common),
			ev.Representative,
			ev.MultiActivity,
			ev.MultiCommunity,
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "failed to write event")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// Save writes an enhanced log to path, creating parent directories.
func (r *EventLog) Save(path string, l *model.EventLog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create enhanced log file")
	}
	defer f.Close()
	return r.Write(f, l)
}
