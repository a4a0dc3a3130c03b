package core

import (
	"strconv"
	"time"
)

// MaxMonths is the last observed month offset. Retention vectors hold
// MaxMonths+1 entries (month 0 through month 24).
const MaxMonths = 24

// RetentionLen is the fixed length of every retention vector.
const RetentionLen = MaxMonths + 1

// CellKind tags the shape of a raw cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumeric
	CellDate
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumeric:
		return "numeric"
	case CellDate:
		return "date"
	default:
		return "empty"
	}
}

// Cell is a single raw value read from a tabular source.
// Exactly one of Text, Number or Time is meaningful, selected by Kind.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// EmptyCell returns the zero cell.
func EmptyCell() Cell { return Cell{} }

// TextCell wraps a string. Values that are blank after trimming are still
// Text cells; the date normalizer treats them as empty.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumericCell wraps a number.
func NumericCell(f float64) Cell { return Cell{Kind: CellNumeric, Number: f} }

// DateCell wraps an already-decoded date.
func DateCell(t time.Time) Cell { return Cell{Kind: CellDate, Time: t} }

// IsEmpty reports whether the cell carries no value at all.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return c.Text == ""
	case CellDate:
		return c.Time.IsZero()
	default:
		return false
	}
}

// String renders the cell the way it would appear in a spreadsheet export.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumeric:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDate:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// RawRow is one record of the source file: the header names in file order
// and the cell stored under each of them.
type RawRow struct {
	Columns []string
	Values  map[string]Cell
}

// NewRawRow builds a row from parallel header and cell slices. Extra cells
// beyond the header are dropped; missing cells read as empty.
func NewRawRow(columns []string, cells []Cell) RawRow {
	row := RawRow{
		Columns: columns,
		Values:  make(map[string]Cell, len(columns)),
	}
	for i, col := range columns {
		if i < len(cells) {
			row.Values[col] = cells[i]
		}
	}
	return row
}

// Get returns the cell for column, or an empty cell if the column is absent.
func (r RawRow) Get(column string) Cell {
	if r.Values == nil {
		return Cell{}
	}
	return r.Values[column]
}

// ClassifiedCustomer is a row that yielded a usable start date.
type ClassifiedCustomer struct {
	Row          RawRow     // Source row, kept for export enrichment
	RowIndex     int        // Position of Row in the input sequence
	CohortKey    string     // "YYYY-MM" of StartDate
	StartDate    time.Time
	CancelDate   *time.Time // nil while the subscription is active
	TenureMonths int
}

// Active reports whether the customer had not cancelled as of the computation.
func (c ClassifiedCustomer) Active() bool {
	return c.CancelDate == nil
}

// CohortRow is one line of the retention matrix.
type CohortRow struct {
	Cohort        string  `json:"cohort" yaml:"cohort"`
	TotalStarters int     `json:"totalStarters" yaml:"totalStarters"`
	Retention     []int   `json:"retention" yaml:"retention,flow"`
	Average       float64 `json:"average" yaml:"average"`
	Growth        float64 `json:"growth" yaml:"growth"`
}

// CohortStats is the complete retention matrix.
type CohortStats struct {
	Cohorts   []CohortRow `json:"cohorts" yaml:"cohorts"`
	MaxMonths int         `json:"maxMonths" yaml:"maxMonths"`
}

// Result bundles a CohortStats with the per-row classification that
// produced it, for callers that need to enrich or audit the source rows.
type Result struct {
	Stats      CohortStats
	Customers  []ClassifiedCustomer
	Columns    []string // Header of the first row
	Start      Resolution
	Cancel     Resolution
	TotalRows  int
	Excluded   int
	ComputedAt time.Time
}
