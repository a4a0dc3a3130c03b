package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/cohort/internal/core"
	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("%w: unknown format %q (want table, json or yaml)", core.ErrInvalidArgument, format)
}

// writeStats prints stats in the requested format.
func writeStats(w io.Writer, stats core.CohortStats, format, view string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, stats)
	case formatYAML:
		return writeYAML(w, stats)
	default:
		return printMatrix(w, stats, view)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// printMarkdown renders model output for a terminal. Styling follows the
// terminal background; non-terminal writers get plain text.
func printMarkdown(w io.Writer, text string, width int) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(text)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func printSummary(w io.Writer, res *core.Result) {
	fmt.Fprintf(w, "rows: %d, excluded: %d, cohorts: %d, start column: %q (%s)\n",
		res.TotalRows, res.Excluded, len(res.Stats.Cohorts), res.Start.Column, res.Start.Method)
}

// printMatrix writes the matrix as aligned columns. Trailing months that are
// zero for every cohort are omitted.
func printMatrix(w io.Writer, stats core.CohortStats, view string) error {
	months := lastNonZeroMonth(stats) + 1

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"Cohort", "Iniciados"}
	for m := 0; m < months; m++ {
		header = append(header, "M"+strconv.Itoa(m))
	}
	header = append(header, "Média", "Crescimento")
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, row := range stats.Cohorts {
		cells := []string{core.CohortLabel(row.Cohort), strconv.Itoa(row.TotalStarters)}
		fractions := row.Fractions()
		for m := 0; m < months; m++ {
			if view == "abs" {
				cells = append(cells, strconv.Itoa(row.Retention[m]))
			} else {
				cells = append(cells, core.FormatPercent(fractions[m]))
			}
		}
		cells = append(cells, core.FormatPercent(row.Average), core.FormatPercent(row.Growth))
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

func lastNonZeroMonth(stats core.CohortStats) int {
	last := 0
	for _, row := range stats.Cohorts {
		for m, v := range row.Retention {
			if v > 0 && m > last {
				last = m
			}
		}
	}
	return last
}
