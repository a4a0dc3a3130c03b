package tabular

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cohort/internal/core"
)

// readXLSX decodes the first worksheet of a workbook. Numeric cells whose
// number format is a date format become Date cells; other numbers stay
// Numeric so the date normalizer sees their decimal text.
func readXLSX(ctx context.Context, r io.Reader) ([]core.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	sheet := sheets[0]

	dec := newCellDecoder(f, sheet)

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var (
		header  []string
		records [][]core.Cell
	)
	for rowNum := 1; rows.Next(); rowNum++ {
		if rowNum%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		vals, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rowNum, err)
		}

		if header == nil {
			if blankStrings(vals) {
				continue
			}
			header = headerNames(vals)
			continue
		}

		cells := make([]core.Cell, len(vals))
		for i, raw := range vals {
			cells[i] = dec.decode(i+1, rowNum, raw)
		}
		records = append(records, cells)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	if header == nil {
		return nil, nil
	}
	return buildRows(header, records), nil
}

// cellDecoder maps raw worksheet values to typed cells, caching the date
// classification of each style id.
type cellDecoder struct {
	f         *excelize.File
	sheet     string
	date1904  bool
	dateStyle map[int]bool
}

func newCellDecoder(f *excelize.File, sheet string) *cellDecoder {
	d := &cellDecoder{f: f, sheet: sheet, dateStyle: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *cellDecoder) decode(col, row int, raw string) core.Cell {
	if strings.TrimSpace(raw) == "" {
		return core.EmptyCell()
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return textCell(raw)
	}

	typ, err := d.f.GetCellType(d.sheet, name)
	if err != nil {
		return textCell(raw)
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeBool, excelize.CellTypeError:
		return textCell(raw)
	case excelize.CellTypeDate:
		if t, ok := parseISOCell(raw); ok {
			return core.DateCell(t)
		}
		return textCell(raw)
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return textCell(raw)
	}
	if d.isDateStyled(name) {
		if t, err := excelize.ExcelDateToTime(num, d.date1904); err == nil {
			return core.DateCell(t.UTC())
		}
	}
	return core.NumericCell(num)
}

func (d *cellDecoder) isDateStyled(cell string) bool {
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := d.dateStyle[idx]; ok {
		return v
	}

	isDate := false
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltinDateFormat(style.NumFmt)
		}
	}
	d.dateStyle[idx] = isDate
	return isDate
}

// isBuiltinDateFormat reports whether a built-in number format id renders
// a date (ECMA-376 18.8.30).
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains day,
// month or year tokens outside quoted literals and brackets.
func isDateFormatCode(code string) bool {
	code = strings.ToLower(code)
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '\\':
			i++
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		case c == 'd' || c == 'y':
			return true
		case c == 'm' && !strings.ContainsAny(code, "hs"):
			return true
		}
	}
	return false
}

func parseISOCell(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
