package core

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name   string
		cell   Cell
		want   time.Time
		wantOK bool
	}{
		{"day first", TextCell("01/03/2023"), day(2023, time.March, 1), true},
		{"single digits", TextCell("1/3/2023"), day(2023, time.March, 1), true},
		{"iso", TextCell("2023-03-01"), day(2023, time.March, 1), true},
		{"month first when day first is invalid", TextCell("03/15/2023"), day(2023, time.March, 15), true},
		{"day first with time", TextCell("01/03/2023 14:30:00"), time.Date(2023, time.March, 1, 14, 30, 0, 0, time.UTC), true},
		{"day first with minutes", TextCell("01/03/2023 10:00"), time.Date(2023, time.March, 1, 10, 0, 0, 0, time.UTC), true},
		{"month first with minutes", TextCell("03/15/2023 9:05"), time.Date(2023, time.March, 15, 9, 5, 0, 0, time.UTC), true},
		{"iso with minutes", TextCell("2023-3-1 10:00"), time.Date(2023, time.March, 1, 10, 0, 0, 0, time.UTC), true},
		{"iso with seconds", TextCell("2023-03-01 10:00:30"), time.Date(2023, time.March, 1, 10, 0, 30, 0, time.UTC), true},
		{"minutes out of range", TextCell("01/03/2023 10:75"), time.Time{}, false},
		{"surrounding space", TextCell("  2023-03-01\t"), day(2023, time.March, 1), true},
		{"rfc3339", TextCell("2023-03-01T10:00:00Z"), time.Date(2023, time.March, 1, 10, 0, 0, 0, time.UTC), true},
		{"long month", TextCell("March 1, 2023"), day(2023, time.March, 1), true},
		{"day month year words", TextCell("1 Mar 2023"), day(2023, time.March, 1), true},
		{"calendar validated", TextCell("31/02/2023"), time.Time{}, false},
		{"garbage", TextCell("soon"), time.Time{}, false},
		{"empty text", TextCell(""), time.Time{}, false},
		{"empty cell", EmptyCell(), time.Time{}, false},
		{"bare serial number", NumericCell(45000), time.Time{}, false},
		{"date passes through", DateCell(day(2022, time.December, 31)), day(2022, time.December, 31), true},
		{"zero date", DateCell(time.Time{}), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.cell)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeDate() ok = %v, want %v (got %v)", ok, tt.wantOK, got)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NormalizeDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		from, to time.Time
		want     int
	}{
		{day(2023, 1, 31), day(2023, 2, 1), 1},
		{day(2023, 1, 1), day(2023, 1, 31), 0},
		{day(2022, 11, 15), day(2023, 2, 1), 3},
		{day(2023, 5, 1), day(2023, 3, 1), -2},
	}
	for _, tt := range tests {
		if got := monthsBetween(tt.from, tt.to); got != tt.want {
			t.Errorf("monthsBetween(%s, %s) = %d, want %d",
				tt.from.Format(time.DateOnly), tt.to.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(day(2023, time.March, 9)); got != "2023-03" {
		t.Errorf("MonthKey() = %q, want 2023-03", got)
	}
	if _, ok := ParseMonthKey("2023-13"); ok {
		t.Error("ParseMonthKey(2023-13) ok = true")
	}
	got, ok := ParseMonthKey("2023-03")
	if !ok || !got.Equal(day(2023, time.March, 1)) {
		t.Errorf("ParseMonthKey(2023-03) = %v, %v", got, ok)
	}
}
