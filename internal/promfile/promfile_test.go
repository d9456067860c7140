package promfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scan-report-dashboard/internal/report"
)

func TestMetricName(t *testing.T) {
	assert.Equal(t, "repeat_user_scan_share", MetricName("Repeat-user scan share"))
	assert.Equal(t, "maintenance_parts_total", MetricName("Maintenance parts (total)"))
	assert.Equal(t, "unique_vins", MetricName("Unique VINs"))
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_report.prom")
	r := &report.Report{
		Variant:     "rs2",
		GeneratedAt: time.Unix(1756684800, 0).UTC(),
		Metrics: []report.Metric{
			{Label: "Total scans", Value: 5, Kind: report.KindCount},
			{Label: "Repeat user share", Value: 0.5, Kind: report.KindPercent},
		},
	}

	require.NoError(t, Write(path, r, 7))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, `scan_report_metric{kind="count",metric="total_scans",variant="rs2"} 5`)
	assert.Contains(t, out, `scan_report_metric{kind="percent",metric="repeat_user_share",variant="rs2"} 0.5`)
	assert.Contains(t, out, `scan_report_rows_total{variant="rs2"} 7`)
	assert.Contains(t, out, `scan_report_generated_timestamp_seconds{variant="rs2"} 1.7566848e+09`)
}
