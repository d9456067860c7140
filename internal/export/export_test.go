package export

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scan-report-dashboard/internal/report"
)

func testReport() *report.Report {
	dtc := report.Dataset{
		Columns: []string{"MIL DTC", "Scans", "Top Parts"},
		Kinds:   []report.Kind{report.KindText, report.KindCount, report.KindText},
		Rows: [][]any{
			{"P0300", 3, "Spark Plug (2), Coil (1)"},
			{"P0420", 1, "n/a"},
		},
	}
	shares := report.Dataset{
		Columns: []string{"state", "repeat_scan_share"},
		Rows:    [][]any{{"CA", 0.25}, {"TX", math.NaN()}},
	}
	return &report.Report{
		Variant:     "rs2",
		Title:       "RS2",
		GeneratedAt: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
		TotalScans:  4,
		Metrics:     []report.Metric{{Label: "Total scans", Value: 4, Kind: report.KindCount}},
		Tables: []report.Table{
			{Key: "mil_dtc", Title: "DTC", Data: dtc},
			{Key: "shares", Title: "Shares", Data: shares},
		},
		Data: map[string]report.Dataset{"mil_dtc": dtc},
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")

	require.NoError(t, WriteJSON(path, testReport()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded struct {
		Variant    string `json:"variant"`
		TotalScans int    `json:"total_scans"`
		Metrics    []struct {
			Label string  `json:"label"`
			Value float64 `json:"value"`
		} `json:"metrics"`
		Data map[string][]map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "rs2", decoded.Variant)
	assert.Equal(t, 4, decoded.TotalScans)
	assert.Equal(t, "Total scans", decoded.Metrics[0].Label)
	assert.Equal(t, "P0300", decoded.Data["mil_dtc"][0]["MIL DTC"])
}

func TestWriteTablesCSV(t *testing.T) {
	dir := t.TempDir()

	paths, err := WriteTablesCSV(dir, testReport())

	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "mil_dtc.csv"), filepath.Join(dir, "shares.csv")}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "\ufeffMIL DTC,Scans,Top Parts\nP0300,3,\"Spark Plug (2), Coil (1)\"\nP0420,1,n/a\n", string(raw))

	raw, err = os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "\ufeffstate,repeat_scan_share\nCA,0.25\nTX,\n", string(raw), "NaN is written as an empty cell")
}
