package core

import "time"

// Finalize fills Average and Growth on rows already ordered by cohort key.
// It must see every row at once because growth compares neighbours.
func Finalize(rows []CohortRow, now time.Time) []CohortRow {
	out := make([]CohortRow, len(rows))
	for i, row := range rows {
		row.Average = realizedAverage(row, now)
		if i > 0 {
			row.Growth = row.Average - out[i-1].Average
		}
		out[i] = row
	}
	return out
}

// RealizedMonths is how many leading retention entries have had calendar
// time to happen for a cohort starting in cohortStart. Always in [1, 25].
func RealizedMonths(cohortStart, now time.Time) int {
	n := monthsBetween(cohortStart, now) + 1
	if n > RetentionLen {
		n = RetentionLen
	}
	if n < 1 {
		n = 1
	}
	return n
}

// realizedAverage is the mean retention fraction over the realized months.
// Only the first RealizedMonths entries participate.
func realizedAverage(row CohortRow, now time.Time) float64 {
	start, ok := ParseMonthKey(row.Cohort)
	if !ok {
		return 0
	}

	n := RealizedMonths(start, now)
	if n > len(row.Retention) {
		n = len(row.Retention)
	}
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range row.Retention[:n] {
		sum += Fraction(v, row.TotalStarters)
	}
	return sum / float64(n)
}

// Fraction is the single percentage conversion used everywhere: the
// finalizer, the exports and the HTML view all go through it.
func Fraction(count, starters int) float64 {
	if starters <= 0 {
		return 0
	}
	return float64(count) / float64(starters)
}

// Fractions converts a row's retention counts with Fraction.
func (r CohortRow) Fractions() []float64 {
	out := make([]float64, len(r.Retention))
	for i, v := range r.Retention {
		out[i] = Fraction(v, r.TotalStarters)
	}
	return out
}
