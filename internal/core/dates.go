package core

// dates.go turns raw cells of unknown shape into calendar dates.
//
// Exports arrive from tools configured for different locales, so a single
// column can mix "01/03/2023", "2023-03-01" and full timestamps. The explicit
// layouts are tried in a fixed priority order; day-first wins whenever a
// value is valid both ways (01/02/2023 is 1 February).

import (
	"strings"
	"time"
)

// explicitDateLayouts are tried first, in order. Single-digit layout
// elements accept one or two digits, so "1/3/2023" and "01/03/2023" both
// match the first entry.
var explicitDateLayouts = []string{
	"2/1/2006",          // dd/MM/yyyy
	"2006-1-2",          // yyyy-MM-dd
	"1/2/2006",          // MM/dd/yyyy
	"2/1/2006 15:04:05", // dd/MM/yyyy HH:mm:ss
	"2/1/2006 15:04",    // dd/MM/yyyy HH:mm
	"2006-1-2 15:04:05", // yyyy-MM-dd HH:mm:ss
	"2006-1-2 15:04",    // yyyy-MM-dd HH:mm
	"1/2/2006 15:04",    // MM/dd/yyyy HH:mm
}

// freeFormLayouts is the generic timestamp fallback.
var freeFormLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.RFC822Z,
	time.RFC822,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"Mon Jan 2 2006",
	"Mon Jan 2 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006/1/2",
	"2006/1/2 15:04:05",
	"1/2/2006 15:04:05",
	"2006-01",
}

// NormalizeDate converts a cell into a calendar date.
// It returns false for empty cells and values no layout accepts; it never
// fails in any other way.
func NormalizeDate(c Cell) (time.Time, bool) {
	switch c.Kind {
	case CellDate:
		if c.Time.IsZero() {
			return time.Time{}, false
		}
		return c.Time, true
	case CellText:
		return parseDateText(c.Text)
	case CellNumeric:
		// Numbers get no special treatment: they go through the same text
		// layouts and, being bare digits, normally match none of them.
		return parseDateText(c.String())
	default:
		return time.Time{}, false
	}
}

// ParseDate is NormalizeDate for plain strings.
func ParseDate(s string) (time.Time, bool) {
	return parseDateText(s)
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range explicitDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range freeFormLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// monthsBetween returns the number of calendar-month boundaries between
// from and to. Days of month are ignored: Jan 31 to Feb 1 is one month.
func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// MonthKey formats the "YYYY-MM" cohort key of t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ParseMonthKey parses a "YYYY-MM" key into the first day of that month, UTC.
func ParseMonthKey(key string) (time.Time, bool) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
