// Package render writes a report as one self-contained HTML dashboard.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig/v3"

	"scan-report-dashboard/internal/report"
)

//go:embed templates/dashboard.html.tmpl
var templateFS embed.FS

// PlotlyURL is the script the page loads to draw charts.
const PlotlyURL = "https://cdn.plot.ly/plotly-latest.min.js"

type Renderer struct {
	tmpl *template.Template
}

type card struct {
	Label       string
	Value       string
	Description string
}

type tableView struct {
	Key     string
	Title   string
	Columns []string
	Rows    [][]string
}

type pageData struct {
	Title       string
	Variant     string
	GeneratedAt time.Time
	TotalScans  int
	ThemeKey    string
	PlotlyURL   string
	Cards       []card
	Tables      []tableView
	Charts      []report.ChartSpec
	ChartData   template.JS
	ChartSpecs  template.JS
}

// New parses the embedded dashboard template.
func New() (*Renderer, error) {
	tmpl, err := template.New("dashboard.html.tmpl").
		Funcs(sprig.HtmlFuncMap()).
		ParseFS(templateFS, "templates/dashboard.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the dashboard for r to w.
func (rd *Renderer) Render(w io.Writer, r *report.Report) error {
	data, err := buildPage(r)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := rd.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// WriteFile renders the dashboard to path, creating parent directories.
func (rd *Renderer) WriteFile(path string, r *report.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := rd.Render(&buf, r); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildPage(r *report.Report) (pageData, error) {
	page := pageData{
		Title:       r.Title,
		Variant:     r.Variant,
		GeneratedAt: r.GeneratedAt,
		TotalScans:  r.TotalScans,
		ThemeKey:    r.Variant + "Theme",
		PlotlyURL:   PlotlyURL,
		Charts:      r.Charts,
	}
	for _, m := range r.Metrics {
		page.Cards = append(page.Cards, card{Label: m.Label, Value: FormatMetric(m), Description: m.Description})
	}
	for _, t := range r.Tables {
		view := tableView{Key: t.Key, Title: t.Title, Columns: t.Data.Columns}
		for _, row := range t.Data.Rows {
			cells := make([]string, len(t.Data.Columns))
			for i := range cells {
				if i < len(row) {
					cells[i] = FormatCell(row[i], t.Data.Kind(i))
				}
			}
			view.Rows = append(view.Rows, cells)
		}
		page.Tables = append(page.Tables, view)
	}

	datasets := r.Data
	if datasets == nil {
		datasets = map[string]report.Dataset{}
	}
	chartData, err := json.Marshal(datasets)
	if err != nil {
		return pageData{}, fmt.Errorf("encode chart data: %w", err)
	}
	charts := r.Charts
	if charts == nil {
		charts = []report.ChartSpec{}
	}
	chartSpecs, err := json.Marshal(charts)
	if err != nil {
		return pageData{}, fmt.Errorf("encode chart specs: %w", err)
	}
	// json.Marshal escapes <, > and &, so the payload cannot close the script element.
	page.ChartData = template.JS(chartData)
	page.ChartSpecs = template.JS(chartSpecs)
	return page, nil
}
