package model

import (
	"strconv"

	"gopkg.in/guregu/null.v3"
)

// Column identifies an Event field the ranking engine can group, sort or
// aggregate by.
type Column int

const (
	ColumnNone Column = iota
	ColumnCase
	ColumnActivity
	ColumnStage
	ColumnCommunity
	ColumnCommunityRankOverall
	ColumnCommunityRankWithin
	ColumnActivityRankOverall
	ColumnActivityRankWithin
	ColumnRelSeconds
	ColumnLogSeconds
	ColumnNormCase
	ColumnNormLog
)

var columnNames = map[Column]string{
	ColumnNone:                 "",
	ColumnCase:                 "case",
	ColumnActivity:             "activity",
	ColumnStage:                HeaderStage,
	ColumnCommunity:            HeaderCommunity,
	ColumnCommunityRankOverall: HeaderCommunityRankOverall,
	ColumnCommunityRankWithin:  HeaderCommunityRankWithin,
	ColumnActivityRankOverall:  HeaderActivityRankOverall,
	ColumnActivityRankWithin:   HeaderActivityRankWithin,
	ColumnRelSeconds:           HeaderRelSeconds,
	ColumnLogSeconds:           HeaderLogSeconds,
	ColumnNormCase:             HeaderNormCase,
	ColumnNormLog:              HeaderNormLog,
}

func (c Column) String() string {
	if name, ok := columnNames[c]; ok {
		return name
	}
	return "column(" + strconv.Itoa(int(c)) + ")"
}

// Numeric reports whether the column holds a time measure usable as a rank value.
func (c Column) Numeric() bool {
	switch c {
	case ColumnRelSeconds, ColumnLogSeconds, ColumnNormCase, ColumnNormLog:
		return true
	}
	return false
}

// CellKind discriminates the payload of a Cell.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellInt
	CellString
)

// Cell is a comparable grouping value. Null cells mark missing communities or ranks.
type Cell struct {
	Kind CellKind
	Int  int64
	Str  string
}

func IntCell(v int64) Cell     { return Cell{Kind: CellInt, Int: v} }
func StringCell(v string) Cell { return Cell{Kind: CellString, Str: v} }

func NullIntCell(v null.Int) Cell {
	if !v.Valid {
		return Cell{}
	}
	return IntCell(v.Int64)
}

func (c Cell) IsNull() bool { return c.Kind == CellNull }

// Less orders null cells first, then integers numerically, then strings lexically.
func (c Cell) Less(o Cell) bool {
	if c.Kind != o.Kind {
		return c.Kind < o.Kind
	}
	switch c.Kind {
	case CellInt:
		return c.Int < o.Int
	case CellString:
		return c.Str < o.Str
	}
	return false
}

func (c Cell) String() string {
	switch c.Kind {
	case CellInt:
		return strconv.FormatInt(c.Int, 10)
	case CellString:
		return c.Str
	}
	return "null"
}

// MaxKeyWidth bounds the number of group-by columns of a composite key.
const MaxKeyWidth = 3

// Key is a composite group-by key. Unused positions stay as zero (null) cells,
// which keeps Key comparable and usable as a map key.
type Key [MaxKeyWidth]Cell

// HasNull reports whether any of the first width cells is null.
func (k Key) HasNull(width int) bool {
	for i := 0; i < width; i++ {
		if k[i].IsNull() {
			return true
		}
	}
	return false
}

// Cell returns the grouping value of an event for col.
func (e *Event) Cell(col Column) Cell {
	switch col {
	case ColumnCase:
		return StringCell(e.CaseID)
	case ColumnActivity:
		return StringCell(e.Activity)
	case ColumnStage:
		return IntCell(int64(e.Stage))
	case ColumnCommunity:
		return NullIntCell(e.Community)
	case ColumnCommunityRankOverall:
		return NullIntCell(e.CommunityRankOverall)
	case ColumnCommunityRankWithin:
		return NullIntCell(e.CommunityRankWithin)
	case ColumnActivityRankOverall:
		return NullIntCell(e.ActivityRankOverall)
	case ColumnActivityRankWithin:
		return NullIntCell(e.ActivityRankWithin)
	}
	return Cell{}
}

// Value returns the numeric time measure of an event for col.
func (e *Event) Value(col Column) float64 {
	switch col {
	case ColumnRelSeconds:
		return float64(e.RelSeconds)
	case ColumnLogSeconds:
		return e.LogSeconds
	case ColumnNormCase:
		return e.NormCase
	case ColumnNormLog:
		return e.NormLog
	}
	return 0
}

// KeyOf builds the composite key of an event over cols.
func (e *Event) KeyOf(cols []Column) Key {
	var k Key
	for i, col := range cols {
		k[i] = e.Cell(col)
	}
	return k
}
