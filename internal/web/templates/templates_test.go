package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func sampleImport() *core.Import {
	return &core.Import{
		ID: "imp-1",
		Result: &core.Result{Stats: core.CohortStats{
			MaxMonths: 2,
			Cohorts: []core.CohortRow{
				{Cohort: "2024-01", TotalStarters: 2, Retention: []int{2, 1, 0}, Average: 0.75, Growth: 0.1},
				{Cohort: "2024-02", TotalStarters: 4, Retention: []int{4, 4, 0}, Average: 1, Growth: -0.2},
			},
		}},
	}
}

func TestErrorAlert_EscapesText(t *testing.T) {
	html := render(t, ErrorAlert("<script>alert(1)</script>", "", "COH001"))

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "<small>(COH001)</small>")
	assert.NotContains(t, html, "<span>")
}

func TestErrorAlert_WithAction(t *testing.T) {
	html := render(t, ErrorAlert("Bad file", "Try a CSV", "TAB001"))
	assert.Contains(t, html, "<strong>Bad file</strong> <span>Try a CSV</span> <small>")
}

func TestPage_Shell(t *testing.T) {
	html := render(t, Page("Análise <x>", Empty()))

	assert.Contains(t, html, "<!doctype html>")
	assert.Contains(t, html, "<title>Análise &lt;x&gt;</title>")
	assert.Contains(t, html, `action="/import"`)
	assert.Contains(t, html, "Suba sua exportação")
}

func TestPage_NilBody(t *testing.T) {
	html := render(t, Page("x", nil))
	assert.Contains(t, html, "<main></main>")
}

func TestLogin(t *testing.T) {
	html := render(t, Login(false))
	assert.Contains(t, html, `action="/login"`)
	assert.Contains(t, html, `name="api_key"`)
	assert.NotContains(t, html, "AUTH_INVALID_KEY")
	assert.NotContains(t, html, `action="/import"`)

	assert.Contains(t, render(t, Login(true)), "AUTH_INVALID_KEY")
}

func TestMatrix_PercentView(t *testing.T) {
	html := render(t, Matrix(MatrixParams{Import: sampleImport(), View: ViewPercent}))

	assert.Contains(t, html, `<a class="btn on" href="/?view=perc">`)
	assert.Contains(t, html, `<a class="btn" href="/?view=abs">`)
	assert.Contains(t, html, "<span>2 Cohorts Ativos</span>")
	assert.Contains(t, html, `href="/export.xlsx"`)
	assert.Contains(t, html, "<th>Mês 0</th><th>Mês 1</th><th>Mês 2</th><th>Média</th>")
	assert.Contains(t, html, `<td class="cohort">jan/24</td><td>2</td>`)
	assert.Contains(t, html, ">100.00%</td>")
	assert.Contains(t, html, ">50.00%</td>")
	assert.Contains(t, html, ">-</td>")
	assert.Contains(t, html, `style="background:#`)
	assert.Contains(t, html, `<td class="up">&#9650; 10.00%</td>`)
	assert.Contains(t, html, `<td class="down">&#9660; -20.00%</td>`)
	assert.NotContains(t, html, "Insights Estratégicos IA")
	assert.NotContains(t, html, `class="insight"`)
}

func TestMatrix_AbsoluteViewWithInsight(t *testing.T) {
	alert := core.UserMessage{Message: "Saved copy is stale", Code: "STORE003"}
	html := render(t, Matrix(MatrixParams{
		Import:   sampleImport(),
		View:     ViewAbsolute,
		Insight:  "Retenção <b>estável</b>",
		Alert:    &alert,
		Insights: true,
	}))

	assert.Contains(t, html, `<a class="btn on" href="/?view=abs">`)
	assert.Contains(t, html, ">4</td>")
	assert.NotContains(t, html, ">100.00%</td>")
	assert.Contains(t, html, `action="/insights?view=abs"`)
	assert.Contains(t, html, "STORE003")
	assert.Contains(t, html, "Retenção &lt;b&gt;estável&lt;/b&gt;")
}

func TestParseView(t *testing.T) {
	assert.Equal(t, ViewAbsolute, ParseView("abs"))
	assert.Equal(t, ViewPercent, ParseView("perc"))
	assert.Equal(t, ViewPercent, ParseView(""))
	assert.Equal(t, ViewPercent, ParseView("ABS"))
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, "-", cellValue(ViewPercent, 0, 0))
	assert.Equal(t, "-", cellValue(ViewAbsolute, 0, 0))
	assert.Equal(t, "3", cellValue(ViewAbsolute, 3, 0.5))
	assert.Equal(t, "50.00%", cellValue(ViewPercent, 3, 0.5))
}
