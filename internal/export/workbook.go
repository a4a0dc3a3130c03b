// Package export writes a computed retention matrix as an XLSX workbook.
//
// The workbook has three sheets: the source rows with their cohort label and
// tenure appended, the matrix in absolute counts, and the matrix as a
// fraction of each cohort's starters with heatmap fills.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cohort/internal/core"
)

// Sheet names.
const (
	SheetData     = "Dados"
	SheetAbsolute = "Análise Absoluta"
	SheetPercent  = "Retenção Percentual"
)

// Column headers appended to the source data and used by the matrix sheets.
const (
	HeaderCohortMonth = "Mês Cohort"
	HeaderTenure      = "Permanência Ajustada (Meses)"
	HeaderCohort      = "Mês do Cohort"
	HeaderStarters    = "Contratos (Iniciados)"
	HeaderAverage     = "Média Retenção"
	HeaderGrowth      = "Tendência (Trend)"
)

// Built-in number formats.
const (
	numFmtPercent = 10 // 0.00%
	numFmtDate    = 14 // m/d/yyyy, localized by the reader's Excel
)

// Options tunes workbook generation.
type Options struct {
	// OnRow is called after each source row is written to the data sheet.
	OnRow func(done, total int)
}

// Write builds the workbook for rows and res and writes it to w.
func Write(w io.Writer, rows []core.RawRow, res *core.Result, opts Options) error {
	f, err := Build(rows, res, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller owns the returned file.
func Build(rows []core.RawRow, res *core.Result, opts Options) (*excelize.File, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: nil result", core.ErrInvalidArgument)
	}

	f := excelize.NewFile()
	b := &builder{f: f, tierStyles: make(map[core.HeatTier]int)}

	if err := b.initStyles(); err != nil {
		f.Close()
		return nil, err
	}

	// Rename the default sheet rather than leaving an empty "Sheet1".
	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	steps := []func() error{
		func() error { return b.writeData(rows, res, opts.OnRow) },
		func() error { return b.writeAbsolute(res.Stats) },
		func() error { return b.writePercent(res.Stats) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

type builder struct {
	f          *excelize.File
	header     int
	date       int
	percent    int
	tierStyles map[core.HeatTier]int
}

func (b *builder) initStyles() error {
	var err error
	if b.header, err = b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E2E8F0"}},
	}); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if b.date, err = b.f.NewStyle(&excelize.Style{NumFmt: numFmtDate}); err != nil {
		return fmt.Errorf("date style: %w", err)
	}
	if b.percent, err = b.f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return fmt.Errorf("percent style: %w", err)
	}
	return nil
}

// tierStyle returns a percent style filled with the tier color.
func (b *builder) tierStyle(t core.HeatTier) (int, error) {
	if id, ok := b.tierStyles[t]; ok {
		return id, nil
	}
	font := &excelize.Font{Color: "1E293B"}
	if t.LightText() {
		font.Color = "FFFFFF"
	}
	id, err := b.f.NewStyle(&excelize.Style{
		NumFmt: numFmtPercent,
		Font:   font,
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{t.Color()}},
	})
	if err != nil {
		return 0, fmt.Errorf("tier style: %w", err)
	}
	b.tierStyles[t] = id
	return id, nil
}

// writeData streams the source rows with cohort label and tenure appended.
// Rows that were excluded from the matrix keep blank cohort and tenure.
func (b *builder) writeData(rows []core.RawRow, res *core.Result, onRow func(done, total int)) error {
	sw, err := b.f.NewStreamWriter(SheetData)
	if err != nil {
		return fmt.Errorf("data sheet: %w", err)
	}

	columns := res.Columns
	if len(columns) == 0 && len(rows) > 0 {
		columns = rows[0].Columns
	}

	header := make([]any, 0, len(columns)+2)
	for _, c := range columns {
		header = append(header, excelize.Cell{StyleID: b.header, Value: c})
	}
	header = append(header,
		excelize.Cell{StyleID: b.header, Value: HeaderCohortMonth},
		excelize.Cell{StyleID: b.header, Value: HeaderTenure},
	)
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("data header: %w", err)
	}

	byIndex := make(map[int]core.ClassifiedCustomer, len(res.Customers))
	for _, c := range res.Customers {
		byIndex[c.RowIndex] = c
	}

	for i, row := range rows {
		values := make([]any, 0, len(columns)+2)
		for _, col := range columns {
			values = append(values, b.cellValue(row.Get(col)))
		}
		if c, ok := byIndex[i]; ok {
			values = append(values, core.CohortLabel(c.CohortKey), c.TenureMonths)
		} else {
			values = append(values, nil, nil)
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("data row %d: %w", i+1, err)
		}
		if onRow != nil {
			onRow(i+1, len(rows))
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush data sheet: %w", err)
	}
	return nil
}

func (b *builder) cellValue(c core.Cell) any {
	switch c.Kind {
	case core.CellText:
		return c.Text
	case core.CellNumeric:
		return c.Number
	case core.CellDate:
		if c.Time.IsZero() {
			return nil
		}
		return excelize.Cell{StyleID: b.date, Value: c.Time}
	default:
		return nil
	}
}

func matrixHeader(averageLabel, growthLabel string) []any {
	h := make([]any, 0, core.RetentionLen+4)
	h = append(h, HeaderCohort, HeaderStarters)
	for m := 0; m < core.RetentionLen; m++ {
		h = append(h, "Mês "+strconv.Itoa(m))
	}
	return append(h, averageLabel, growthLabel)
}

func (b *builder) newSheet(name string, header []any) error {
	if _, err := b.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	if err := b.f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", name, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := b.f.SetCellStyle(name, "A1", last, b.header); err != nil {
		return fmt.Errorf("%s header style: %w", name, err)
	}
	return b.f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      1,
		TopLeftCell: "C2",
		ActivePane:  "bottomRight",
	})
}

func (b *builder) writeAbsolute(stats core.CohortStats) error {
	if err := b.newSheet(SheetAbsolute, matrixHeader(HeaderAverage, HeaderGrowth)); err != nil {
		return err
	}

	for i, row := range stats.Cohorts {
		r := i + 2
		values := make([]any, 0, core.RetentionLen+4)
		values = append(values, core.CohortLabel(row.Cohort), row.TotalStarters)
		for _, v := range row.Retention {
			values = append(values, v)
		}
		values = append(values, row.Average, row.Growth)

		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := b.f.SetSheetRow(SheetAbsolute, cell, &values); err != nil {
			return fmt.Errorf("absolute row %s: %w", row.Cohort, err)
		}
		if err := b.styleSummary(SheetAbsolute, r, len(row.Retention)); err != nil {
			return err
		}
	}
	return nil
}

// writePercent writes each count as a fraction of the cohort's starters.
func (b *builder) writePercent(stats core.CohortStats) error {
	if err := b.newSheet(SheetPercent, matrixHeader(HeaderAverage+" %", "Tendência %")); err != nil {
		return err
	}

	for i, row := range stats.Cohorts {
		r := i + 2
		labelCell, _ := excelize.CoordinatesToCellName(1, r)
		head := []any{core.CohortLabel(row.Cohort), row.TotalStarters}
		if err := b.f.SetSheetRow(SheetPercent, labelCell, &head); err != nil {
			return fmt.Errorf("percent row %s: %w", row.Cohort, err)
		}

		for m, frac := range row.Fractions() {
			cell, _ := excelize.CoordinatesToCellName(m+3, r)
			if err := b.f.SetCellFloat(SheetPercent, cell, frac, -1, 64); err != nil {
				return fmt.Errorf("percent cell %s: %w", cell, err)
			}
			style, err := b.tierStyle(core.Tier(frac))
			if err != nil {
				return err
			}
			if err := b.f.SetCellStyle(SheetPercent, cell, cell, style); err != nil {
				return fmt.Errorf("percent style %s: %w", cell, err)
			}
		}

		tail := []any{row.Average, row.Growth}
		tailCell, _ := excelize.CoordinatesToCellName(len(row.Retention)+3, r)
		if err := b.f.SetSheetRow(SheetPercent, tailCell, &tail); err != nil {
			return fmt.Errorf("percent row %s: %w", row.Cohort, err)
		}
		if err := b.styleSummary(SheetPercent, r, len(row.Retention)); err != nil {
			return err
		}
	}
	return nil
}

// styleSummary formats the average and growth cells of a matrix row.
func (b *builder) styleSummary(sheet string, row, months int) error {
	from, _ := excelize.CoordinatesToCellName(months+3, row)
	to, _ := excelize.CoordinatesToCellName(months+4, row)
	if err := b.f.SetCellStyle(sheet, from, to, b.percent); err != nil {
		return fmt.Errorf("%s summary style: %w", sheet, err)
	}
	return nil
}
