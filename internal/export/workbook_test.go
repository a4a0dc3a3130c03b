package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cohort/internal/core"
)

func sampleRows() []core.RawRow {
	cols := []string{"Nome", "Plano iniciou em", "Plano cancelou em"}
	return []core.RawRow{
		core.NewRawRow(cols, []core.Cell{
			core.TextCell("Ana"),
			core.DateCell(time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)),
			core.EmptyCell(),
		}),
		core.NewRawRow(cols, []core.Cell{
			core.TextCell("Bruno"),
			core.TextCell("20/01/2023"),
			core.TextCell("05/02/2023"),
		}),
		core.NewRawRow(cols, []core.Cell{
			core.TextCell("Carla"),
			core.TextCell("not a date"),
			core.EmptyCell(),
		}),
	}
}

func buildSample(t *testing.T, opts Options) *excelize.File {
	t.Helper()

	rows := sampleRows()
	now := time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC)
	res, err := core.Compute(rows, now, core.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rows, res, opts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestWrite_Sheets(t *testing.T) {
	f := buildSample(t, Options{})
	assert.Equal(t, []string{SheetData, SheetAbsolute, SheetPercent}, f.GetSheetList())
}

func TestWrite_DataSheet(t *testing.T) {
	var calls []int
	f := buildSample(t, Options{OnRow: func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	}})
	assert.Equal(t, []int{1, 2, 3}, calls)

	assert.Equal(t, "Nome", raw(t, f, SheetData, "A1"))
	assert.Equal(t, HeaderCohortMonth, raw(t, f, SheetData, "D1"))
	assert.Equal(t, HeaderTenure, raw(t, f, SheetData, "E1"))

	assert.Equal(t, "jan/23", raw(t, f, SheetData, "D2"))
	assert.Equal(t, "3", raw(t, f, SheetData, "E2"))
	assert.Equal(t, "jan/23", raw(t, f, SheetData, "D3"))
	assert.Equal(t, "1", raw(t, f, SheetData, "E3"))

	assert.Equal(t, "Carla", raw(t, f, SheetData, "A4"))
	assert.Empty(t, raw(t, f, SheetData, "D4"), "excluded row has no cohort")
	assert.Empty(t, raw(t, f, SheetData, "E4"), "excluded row has no tenure")
}

func TestWrite_AbsoluteSheet(t *testing.T) {
	f := buildSample(t, Options{})

	assert.Equal(t, HeaderCohort, raw(t, f, SheetAbsolute, "A1"))
	assert.Equal(t, "Mês 0", raw(t, f, SheetAbsolute, "C1"))
	assert.Equal(t, "Mês 24", raw(t, f, SheetAbsolute, "AA1"))
	assert.Equal(t, HeaderAverage, raw(t, f, SheetAbsolute, "AB1"))

	assert.Equal(t, "jan/23", raw(t, f, SheetAbsolute, "A2"))
	assert.Equal(t, "2", raw(t, f, SheetAbsolute, "B2"))
	assert.Equal(t, "2", raw(t, f, SheetAbsolute, "C2"))
	assert.Equal(t, "1", raw(t, f, SheetAbsolute, "D2"))
	assert.Equal(t, "1", raw(t, f, SheetAbsolute, "E2"))
	assert.Equal(t, "0", raw(t, f, SheetAbsolute, "F2"))
	assert.Empty(t, raw(t, f, SheetAbsolute, "A3"), "only one cohort")
}

func TestWrite_PercentSheetUsesStarters(t *testing.T) {
	f := buildSample(t, Options{})

	assert.Equal(t, "1", raw(t, f, SheetPercent, "C2"))
	assert.Equal(t, "0.5", raw(t, f, SheetPercent, "D2"))
	assert.Equal(t, "0", raw(t, f, SheetPercent, "F2"))

	styleID, err := f.GetCellStyle(SheetPercent, "C2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.Len(t, style.Fill.Color, 1)
	assert.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), core.TierExcellent.Color()),
		"fill %q", style.Fill.Color[0])
}

func TestBuild_NilResult(t *testing.T) {
	_, err := Build(nil, nil, Options{})
	require.ErrorIs(t, err, core.ErrInvalidArgument)
}
