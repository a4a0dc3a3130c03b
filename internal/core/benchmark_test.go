package core

import (
	"fmt"
	"testing"
	"time"
)

// ============================================================================
// Date Normalization Benchmarks
// ============================================================================

// BenchmarkNormalizeDate benchmarks the ordered layout search.
// Every row goes through it twice (start and cancel).
func BenchmarkNormalizeDate(b *testing.B) {
	testCases := []Cell{
		TextCell("15/01/2024"),          // dd/MM/yyyy, first layout
		TextCell("2024-01-15"),          // ISO
		TextCell("01/31/2024"),          // MM/dd/yyyy after dd/MM fails
		TextCell("15/01/2024 10:30:00"), // with time
		TextCell("Jan 15, 2024"),        // free-form fallback
		TextCell("not a date"),
		DateCell(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			NormalizeDate(tc)
		}
	}
}

// BenchmarkNormalizeDate_DayFirst benchmarks the most common export format.
func BenchmarkNormalizeDate_DayFirst(b *testing.B) {
	c := TextCell("15/01/2024")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeDate(c)
	}
}

// ============================================================================
// Column Resolution Benchmarks
// ============================================================================

func BenchmarkResolveColumns_Wide(b *testing.B) {
	columns := make([]string, 40)
	for i := range columns {
		columns[i] = fmt.Sprintf("Coluna %d", i)
	}
	columns[30] = "Plano iniciou em"
	columns[33] = "Plano cancelou em"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ResolveColumns(columns, ColumnMarkers{})
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func benchmarkRows(n int) []RawRow {
	columns := []string{"Cliente", "Plano iniciou em", "Plano cancelou em"}
	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]RawRow, n)
	for i := range rows {
		start := base.AddDate(0, i%24, i%28)
		cancel := EmptyCell()
		if i%3 == 0 {
			cancel = TextCell(start.AddDate(0, i%11, 0).Format("02/01/2006"))
		}
		rows[i] = NewRawRow(columns, []Cell{
			TextCell(fmt.Sprintf("cliente-%d", i)),
			TextCell(start.Format("02/01/2006")),
			cancel,
		})
	}
	return rows
}

// BenchmarkCompute benchmarks the full pipeline at typical export sizes.
func BenchmarkCompute(b *testing.B) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	for _, n := range []int{1_000, 10_000, 100_000} {
		rows := benchmarkRows(n)
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Compute(rows, now, Options{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
