package core

import "sort"

// Aggregate groups customers by cohort key and builds one CohortRow per
// key, ordered ascending. Average and Growth are left zero for Finalize.
func Aggregate(customers []ClassifiedCustomer) []CohortRow {
	groups := make(map[string][]int)
	for _, c := range customers {
		groups[c.CohortKey] = append(groups[c.CohortKey], c.TenureMonths)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	// "YYYY-MM" sorts chronologically as a string.
	sort.Strings(keys)

	rows := make([]CohortRow, 0, len(keys))
	for _, key := range keys {
		tenures := groups[key]
		rows = append(rows, CohortRow{
			Cohort:        key,
			TotalStarters: len(tenures),
			Retention:     retentionVector(tenures),
		})
	}
	return rows
}

// retentionVector counts, for each month offset m, the members whose tenure
// is at least m+1.
func retentionVector(tenures []int) []int {
	retention := make([]int, RetentionLen)
	for _, t := range tenures {
		// A tenure of t contributes to offsets 0..t-1.
		upto := t
		if upto > RetentionLen {
			upto = RetentionLen
		}
		for m := 0; m < upto; m++ {
			retention[m]++
		}
	}
	return retention
}
