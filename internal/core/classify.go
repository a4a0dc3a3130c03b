package core

import "time"

// Classify turns one row into a ClassifiedCustomer.
// ok is false when the row has no usable start date; such rows are excluded
// from every cohort rather than reported.
func Classify(row RawRow, index int, start, cancel Resolution, now time.Time) (ClassifiedCustomer, bool) {
	startDate, ok := NormalizeDate(start.lookup(row))
	if !ok {
		return ClassifiedCustomer{}, false
	}

	var cancelDate *time.Time
	if raw := cancel.lookup(row); !raw.IsEmpty() {
		if d, ok := NormalizeDate(raw); ok {
			cancelDate = &d
		}
	}

	return ClassifiedCustomer{
		Row:          row,
		RowIndex:     index,
		CohortKey:    MonthKey(startDate),
		StartDate:    startDate,
		CancelDate:   cancelDate,
		TenureMonths: tenureMonths(startDate, cancelDate, now),
	}, true
}

// tenureMonths counts whole calendar months of presence.
//
// An active customer is credited with the current month (acquired this
// month = 1). A cancelled customer is not credited with the cancellation
// month (cancelled in the start month = 0).
func tenureMonths(start time.Time, cancel *time.Time, now time.Time) int {
	var n int
	if cancel == nil {
		n = monthsBetween(start, now) + 1
	} else {
		n = monthsBetween(start, *cancel)
	}
	if n < 0 {
		return 0
	}
	return n
}
