// Package console prints the end-of-run summary to the terminal.
package console

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"scan-report-dashboard/internal/render"
	"scan-report-dashboard/internal/report"
	"scan-report-dashboard/internal/scans"
)

var (
	primary = lipgloss.Color("#38BDF8")
	muted   = lipgloss.Color("#94A3B8")
	warning = lipgloss.Color("#FBBF24")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#1D4ED8")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(primary).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(32)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(warning)
)

// Summary is what a run reports back to the user.
type Summary struct {
	Input     string
	Output    string
	Rows      int
	BlankRows int
	Nulled    map[scans.Column]int
	Report    *report.Report
	// Artifacts lists extra outputs (exports, archive run, uploads) as
	// label/value pairs in the order they were produced.
	Artifacts [][2]string
}

// Print writes s to w.
func Print(w io.Writer, s Summary) {
	title := "Scan report"
	if s.Report != nil && s.Report.Title != "" {
		title = s.Report.Title
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w)
	row(w, "Input:", filepath.Base(s.Input))
	row(w, "Output:", s.Output)
	row(w, "Rows read:", fmt.Sprintf("%d", s.Rows))
	if s.BlankRows > 0 {
		row(w, "Rows with no values:", fmt.Sprintf("%d", s.BlankRows))
	}

	if s.Report != nil && len(s.Report.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, sectionStyle.Render("Metrics"))
		fmt.Fprintln(w, lipgloss.NewStyle().Foreground(muted).Render(strings.Repeat("-", 48)))
		for _, m := range s.Report.Metrics {
			row(w, m.Label+":", render.FormatMetric(m))
		}
	}

	if len(s.Nulled) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warnStyle.Render("Values treated as missing"))
		cols := make([]string, 0, len(s.Nulled))
		for col := range s.Nulled {
			cols = append(cols, string(col))
		}
		sort.Strings(cols)
		for _, col := range cols {
			row(w, col+":", fmt.Sprintf("%d", s.Nulled[scans.Column(col)]))
		}
	}

	if len(s.Artifacts) > 0 {
		fmt.Fprintln(w)
		for _, a := range s.Artifacts {
			row(w, a[0]+":", a[1])
		}
	}
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label), valueStyle.Render(value))
}
