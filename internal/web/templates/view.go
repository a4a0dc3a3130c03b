// Package templates renders the HTML views of the cohort service.
//
// Components are written in the .templ files; the _templ.go files are
// produced by `templ generate` and must not be edited by hand.
package templates

import (
	"strconv"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/a-h/templ"
)

// View selects how retention cells are displayed.
type View string

const (
	ViewPercent  View = "perc"
	ViewAbsolute View = "abs"
)

// ParseView maps a query value to a View, defaulting to percentages.
func ParseView(s string) View {
	if View(s) == ViewAbsolute {
		return ViewAbsolute
	}
	return ViewPercent
}

// MatrixParams holds what the matrix page shows.
type MatrixParams struct {
	Import   *core.Import
	View     View
	Insight  string
	Alert    *core.UserMessage
	Insights bool // narrator configured
}

func tierOf(fraction float64) string {
	return strconv.Itoa(int(core.Tier(fraction)))
}

// cellStyle colors a heatmap cell by its retention tier.
func cellStyle(fraction float64) templ.SafeCSS {
	tier := core.Tier(fraction)
	text := "#0B1E33"
	if tier.LightText() {
		text = "#FFFFFF"
	}
	return templ.SafeCSS("background:#" + tier.Color() + ";color:" + text + ";")
}

// cellValue is the cell text; empty months show a dash in both views.
func cellValue(view View, count int, fraction float64) string {
	switch {
	case count == 0:
		return "-"
	case view == ViewPercent:
		return core.FormatPercent(fraction)
	default:
		return strconv.Itoa(count)
	}
}
