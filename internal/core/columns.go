package core

import "strings"

// Positional fallbacks for the legacy export layout, used when no header
// carries a marker token.
const (
	LegacyStartIndex  = 18
	LegacyCancelIndex = 21
)

// Default header marker tokens. Matching is a case-insensitive substring test.
var (
	DefaultStartMarkers  = []string{"iniciou"}
	DefaultCancelMarkers = []string{"cancelou"}
)

// ResolutionMethod records how a column was located.
type ResolutionMethod int

const (
	Unresolved ResolutionMethod = iota
	ResolvedByName
	ResolvedByPosition
)

func (m ResolutionMethod) String() string {
	switch m {
	case ResolvedByName:
		return "name"
	case ResolvedByPosition:
		return "position"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome of locating one semantic column.
type Resolution struct {
	Column string
	Index  int // -1 when unresolved
	Method ResolutionMethod
}

// Resolved reports whether a column was found by either method.
func (r Resolution) Resolved() bool {
	return r.Method != Unresolved
}

// ColumnMarkers configures the header tokens searched by ResolveColumns.
// Nil slices fall back to the defaults.
type ColumnMarkers struct {
	Start  []string
	Cancel []string
}

// ResolveColumns locates the start and cancel columns in a header list.
func ResolveColumns(columns []string, markers ColumnMarkers) (start, cancel Resolution) {
	startMarkers := markers.Start
	if len(startMarkers) == 0 {
		startMarkers = DefaultStartMarkers
	}
	cancelMarkers := markers.Cancel
	if len(cancelMarkers) == 0 {
		cancelMarkers = DefaultCancelMarkers
	}

	start = resolveColumn(columns, startMarkers, LegacyStartIndex)
	cancel = resolveColumn(columns, cancelMarkers, LegacyCancelIndex)
	return start, cancel
}

func resolveColumn(columns []string, markers []string, fallback int) Resolution {
	for i, col := range columns {
		lower := strings.ToLower(col)
		for _, m := range markers {
			m = strings.ToLower(strings.TrimSpace(m))
			if m != "" && strings.Contains(lower, m) {
				return Resolution{Column: col, Index: i, Method: ResolvedByName}
			}
		}
	}

	if fallback >= 0 && fallback < len(columns) {
		return Resolution{Column: columns[fallback], Index: fallback, Method: ResolvedByPosition}
	}

	return Resolution{Index: -1, Method: Unresolved}
}

// lookup returns the cell under a resolution, or empty when unresolved.
func (r Resolution) lookup(row RawRow) Cell {
	if !r.Resolved() {
		return Cell{}
	}
	return row.Get(r.Column)
}
