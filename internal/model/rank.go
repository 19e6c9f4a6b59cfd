package model

// AggKind is the aggregate computed per group before ranking.
type AggKind int

const (
	AggMean AggKind = iota + 1
	AggMedian
	AggMin
	AggMax
)

var aggKindNames = map[AggKind]string{
	AggMean:   "mean",
	AggMedian: "median",
	AggMin:    "min",
	AggMax:    "max",
}

func (a AggKind) String() string {
	if name, ok := aggKindNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a AggKind) Valid() bool {
	_, ok := aggKindNames[a]
	return ok
}

// RankSpec describes one invocation of the ranking engine.
type RankSpec struct {
	// Name labels the rank in logs and exports.
	Name string
	// GroupBy are the columns forming a group. At most MaxKeyWidth.
	GroupBy []Column
	// Value is the numeric column aggregated per group.
	Value Column
	Agg   AggKind
	// SortBy overrides the leading sort columns. When empty, GroupBy is used.
	// The aggregate always comes last.
	SortBy []Column
	// Within restarts ranks at zero for each distinct value of this column.
	// ColumnNone ranks globally.
	Within Column
}

// RankRow is one ranked group.
type RankRow struct {
	Key       Key     `json:"-"`
	Aggregate float64 `json:"aggregate"`
	Rank      int     `json:"rank"`
}

// RankTable holds groups in sorted order and a composite-key index for join-back.
type RankTable struct {
	Spec RankSpec
	Rows []RankRow

	index map[Key]int
}

func NewRankTable(spec RankSpec, rows []RankRow) *RankTable {
	index := make(map[Key]int, len(rows))
	for _, r := range rows {
		index[r.Key] = r.Rank
	}
	return &RankTable{Spec: spec, Rows: rows, index: index}
}

// Lookup returns the rank of key. A missing key is reported as not found and
// must be treated as unranked, never as rank 0.
func (t *RankTable) Lookup(key Key) (int, bool) {
	r, ok := t.index[key]
	return r, ok
}
