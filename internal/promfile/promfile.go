// Package promfile exports report cards in the node-exporter textfile
// format.
package promfile

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"

	"scan-report-dashboard/internal/report"
)

// Write registers the report's cards on a private registry and writes them
// atomically to path.
func Write(path string, r *report.Report, rows int) error {
	registry, err := Registry(r, rows)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Registry builds a registry holding one gauge per card plus run totals.
func Registry(r *report.Report, rows int) (*prometheus.Registry, error) {
	registry := prometheus.NewRegistry()

	metricValue := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_report_metric",
			Help: "Summary card value from the latest dashboard run.",
		},
		[]string{"variant", "metric", "kind"},
	)
	rowsTotal := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_report_rows_total",
			Help: "Data rows read from the input file.",
		},
		[]string{"variant"},
	)
	generated := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_report_generated_timestamp_seconds",
			Help: "Unix time the dashboard was generated.",
		},
		[]string{"variant"},
	)

	for _, c := range []prometheus.Collector{metricValue, rowsTotal, generated} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	for _, m := range r.Metrics {
		metricValue.WithLabelValues(r.Variant, MetricName(m.Label), string(m.Kind)).Set(m.Value)
	}
	rowsTotal.WithLabelValues(r.Variant).Set(float64(rows))
	generated.WithLabelValues(r.Variant).Set(float64(r.GeneratedAt.Unix()))
	return registry, nil
}

// MetricName turns a card label into a snake_case label value.
func MetricName(label string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
