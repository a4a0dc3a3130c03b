package core

import (
	"errors"
	"fmt"
	"time"
)

// Options tunes a Compute call. The zero value uses the default markers.
type Options struct {
	Markers ColumnMarkers
}

// Compute runs the whole pipeline over a snapshot of rows.
//
// now is read once by the caller and used for every row, so two calls with
// the same rows and the same now return identical results. Columns are
// resolved from the first row. A nil rows slice or a zero now is rejected
// with ErrInvalidArgument; a non-nil empty slice yields no cohorts.
func Compute(rows []RawRow, now time.Time, opts Options) (*Result, error) {
	if rows == nil {
		return nil, fmt.Errorf("%w: rows is nil", ErrInvalidArgument)
	}
	if now.IsZero() {
		return nil, fmt.Errorf("%w: now is zero", ErrInvalidArgument)
	}

	res := &Result{
		TotalRows:  len(rows),
		ComputedAt: now,
		Start:      Resolution{Index: -1},
		Cancel:     Resolution{Index: -1},
	}

	if len(rows) > 0 {
		res.Columns = rows[0].Columns
		res.Start, res.Cancel = ResolveColumns(res.Columns, opts.Markers)
	}

	customers := make([]ClassifiedCustomer, 0, len(rows))
	for i, row := range rows {
		c, ok := Classify(row, i, res.Start, res.Cancel, now)
		if !ok {
			res.Excluded++
			continue
		}
		customers = append(customers, c)
	}
	res.Customers = customers

	res.Stats = CohortStats{
		Cohorts:   Finalize(Aggregate(customers), now),
		MaxMonths: MaxMonths,
	}
	return res, nil
}

// ComputeStats is Compute for callers that only need the matrix.
func ComputeStats(rows []RawRow, now time.Time) (CohortStats, error) {
	res, err := Compute(rows, now, Options{})
	if err != nil {
		return CohortStats{}, err
	}
	return res.Stats, nil
}

// RequireCohorts turns an all-excluded result into ErrNoStartColumn.
// Compute itself treats that case as a valid, empty matrix.
func RequireCohorts(res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if len(res.Stats.Cohorts) > 0 {
		return nil
	}
	if !res.Start.Resolved() {
		return fmt.Errorf("%w: header has %d columns and none matches a start marker",
			ErrNoStartColumn, len(res.Columns))
	}
	return fmt.Errorf("%w: column %q produced no parseable dates in %d rows",
		ErrNoStartColumn, res.Start.Column, res.TotalRows)
}
