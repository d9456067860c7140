package report_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scan-report-dashboard/internal/report"
	"scan-report-dashboard/internal/scans"
)

const scanRecordsCSV = `CreatedDateTimeUTC,AccountId,Email,VIN,State
2025-10-01 08:00:00,A1,a1@example.com,VIN1,CA
2025-10-01 09:00:00,A1,a1@example.com,VIN2, ca
2025-10-02 10:00:00,,b@example.com,VIN3,TX
2025-10-03 11:00:00,,b@example.com,VIN3,TX
2025-10-03 12:00:00,C1,,VIN4,california
2025-10-03 13:00:00,D1,,,WA
`

const rs2CSV = `CreatedDateTimeUTC,AccountId,VIN,State,Year,Make,Model,Mileage,TotalAbsCodes,TotalSrsCodes,MaintenancePartsCount,PredictedPartsCount,UsbProductId,MIL DTC,MIL Part Name,ABS Part Name,SRS Part Name
2025-09-01T10:05:00Z,A1,VIN1,CA,2016,Honda,Civic,100000,1,0,2,1,4660,P0300,Spark Plug;Coil,Wheel Speed Sensor,
2025-09-01T10:40:00Z,A1,VIN1,CA,2016,Honda,Civic,100100,1,0,1,0,4660,P0300,Spark Plug,Wheel Speed Sensor; ABS Module,Clock Spring
2025-09-01T12:00:00Z,A2,VIN2,TX,2020,Ford,F-150,20000,,2,0,3,4661,P0420,Catalytic Converter,,Airbag Module;Clock Spring
2025-09-01T12:30:00Z,A2,VIN3,TX,1975,Ford,Mustang,abc,0,1,,,4660,P0300,,,
2025-09-01T13:00:00Z,,VIN4,NV,,Tesla,Model 3,5000,0,0,1,1,,,,,
`

func load(t *testing.T, v report.Variant, data string) []scans.Record {
	t.Helper()
	result, err := scans.Read(strings.NewReader(data), v.Schema, scans.Options{ReferenceYear: 2026})
	require.NoError(t, err)
	return result.Records
}

func metric(t *testing.T, r *report.Report, label string) float64 {
	t.Helper()
	m, ok := r.Metric(label)
	require.True(t, ok, "metric %q", label)
	return m.Value
}

func TestLookup(t *testing.T) {
	v, err := report.Lookup(report.RS2Name)
	require.NoError(t, err)
	assert.Equal(t, report.RepeatByUserVIN, v.Repeat)
	assert.Equal(t, 24, v.Window)

	_, err = report.Lookup("weekly")
	assert.Error(t, err)
}

func TestVariants_keepSeparateUserKeys(t *testing.T) {
	assert.Equal(t, []scans.Column{scans.ColAccountID, scans.ColEmail}, report.ScanRecords().Schema.UserKey)
	assert.Equal(t, []scans.Column{scans.ColAccountID}, report.RS2().Schema.UserKey)
}

func TestBuildScanRecords(t *testing.T) {
	v := report.ScanRecords()
	records := load(t, v, scanRecordsCSV)

	r := report.Build(v, records, report.Options{GeneratedAt: time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)})

	assert.Equal(t, 6, r.TotalScans)
	assert.Equal(t, 6.0, metric(t, r, "Total scans"))
	assert.Equal(t, 4.0, metric(t, r, "Unique users"), "A1, b@example.com, C1, D1")
	assert.Equal(t, 2.0, metric(t, r, "Repeat users"))
	assert.Equal(t, 4.0, metric(t, r, "Repeat-user scans"))
	assert.InDelta(t, 4.0/6.0, metric(t, r, "Repeat-user scan share"), 1e-9)
	assert.InDelta(t, 0.5, metric(t, r, "Repeat-user share"), 1e-9)
	assert.Equal(t, 4.0, metric(t, r, "Unique VINs"))
	assert.Equal(t, 1.0, metric(t, r, "VINs scanned multiple times"))

	states, ok := r.Table("state_summary")
	require.True(t, ok)
	require.Equal(t, 3, states.Data.Len(), "california is excluded")
	assert.Equal(t, []any{"CA", 2, 2, 1.0, 2.0 / 6.0}, states.Data.Rows[0])
	assert.Equal(t, []any{"TX", 2, 2, 1.0, 2.0 / 6.0}, states.Data.Rows[1])
	assert.Equal(t, []any{"WA", 1, 0, 0.0, 1.0 / 6.0}, states.Data.Rows[2])

	repeatState, ok := r.Table("repeat_user_state")
	require.True(t, ok)
	assert.Equal(t, []any{"CA", 1, 0.5, 1.0}, repeatState.Data.Rows[0])
	assert.Equal(t, []any{"WA", 0, 0.0, 0.0}, repeatState.Data.Rows[2])

	days := r.Data["scans_by_day"]
	require.Equal(t, 3, days.Len())
	assert.Equal(t, 2, days.Rows[0][1])
	assert.Equal(t, 3, days.Rows[2][1])
	assert.Len(t, r.Charts, 4)
}

func TestBuildRS2(t *testing.T) {
	v := report.RS2()
	records := load(t, v, rs2CSV)
	pacific, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	r := report.Build(v, records, report.Options{ReferenceYear: 2026, Location: pacific})

	assert.Equal(t, 5.0, metric(t, r, "Total scans"))
	assert.Equal(t, 2.0, metric(t, r, "Total scanned users"))
	assert.InDelta(t, (10.0+10.0+6.0)/3.0, metric(t, r, "Average vehicle age"), 1e-9, "1975 is out of range")
	assert.InDelta(t, (100000.0+100100+20000+5000)/4, metric(t, r, "Average mileage"), 1e-9)
	assert.InDelta(t, 0.5, metric(t, r, "Average ABS code count"), 1e-9)
	assert.Equal(t, 4.0, metric(t, r, "Maintenance parts (total)"))
	assert.Equal(t, 5.0, metric(t, r, "Predicted parts (total)"))
	assert.Equal(t, 4.0, metric(t, r, "Unique VINs"))
	assert.Equal(t, 1.0, metric(t, r, "Repeat users"), "only A1 re-scanned the same VIN")
	assert.InDelta(t, 0.5, metric(t, r, "Repeat user share"), 1e-9)

	vehicles, _ := r.Table("top_vehicles")
	require.Equal(t, 3, vehicles.Data.Len(), "Tesla has no year")
	assert.Equal(t, []any{"2016 Honda Civic", 2}, vehicles.Data.Rows[0])
	assert.Equal(t, []any{"2020 Ford F-150", 1}, vehicles.Data.Rows[1])

	usb, _ := r.Table("top_usb")
	assert.Equal(t, []any{int64(4660), 3}, usb.Data.Rows[0])

	dtc, _ := r.Table("mil_dtc")
	assert.Equal(t, []any{"P0300", 3, "Spark Plug (2), Coil (1)"}, dtc.Data.Rows[0])
	assert.Equal(t, []any{"P0420", 1, "Catalytic Converter (1)"}, dtc.Data.Rows[1])

	abs, _ := r.Table("abs_parts")
	assert.Equal(t, []any{"Wheel Speed Sensor", 2}, abs.Data.Rows[0])
	srs, _ := r.Table("srs_parts")
	assert.Equal(t, []any{"Clock Spring", 2}, srs.Data.Rows[0])

	byState := r.Data["scans_by_state"]
	assert.Equal(t, []any{"CA", 2}, byState.Rows[0])
	assert.Equal(t, []any{"TX", 2}, byState.Rows[1])
	assert.Equal(t, []any{"NV", 1}, byState.Rows[2])

	repeatByState := r.Data["repeat_users_by_state"]
	assert.Equal(t, [][]any{{"CA", 1}}, repeatByState.Rows)

	hourly := r.Data["hourly"]
	require.Equal(t, 4, hourly.Len(), "10:00 through 13:00")
	assert.Equal(t, 2, hourly.Rows[0][2])
	assert.Equal(t, 0, hourly.Rows[1][2])
}

func TestBuild_emptyInput(t *testing.T) {
	for _, v := range []report.Variant{report.ScanRecords(), report.RS2()} {
		t.Run(v.Name, func(t *testing.T) {
			header := strings.SplitN(map[string]string{
				report.ScanRecordsName: scanRecordsCSV,
				report.RS2Name:         rs2CSV,
			}[v.Name], "\n", 2)[0] + "\n"

			r := report.Build(v, load(t, v, header), report.Options{ReferenceYear: 2026})

			for _, m := range r.Metrics {
				assert.Zero(t, m.Value, m.Label)
			}
			for _, tbl := range r.Tables {
				assert.Zero(t, tbl.Data.Len(), tbl.Key)
			}
			for key, d := range r.Data {
				raw, err := json.Marshal(d)
				require.NoError(t, err)
				assert.Equal(t, "[]", string(raw), key)
			}
		})
	}
}

func TestBuild_ratiosBounded(t *testing.T) {
	for _, tc := range []struct {
		v    report.Variant
		data string
	}{
		{report.ScanRecords(), scanRecordsCSV},
		{report.RS2(), rs2CSV},
	} {
		r := report.Build(tc.v, load(t, tc.v, tc.data), report.Options{ReferenceYear: 2026})
		for _, m := range r.Metrics {
			if m.Kind == report.KindPercent {
				assert.GreaterOrEqual(t, m.Value, 0.0, m.Label)
				assert.LessOrEqual(t, m.Value, 1.0, m.Label)
			}
		}
		for _, tbl := range r.Tables {
			for _, row := range tbl.Data.Rows {
				for i, cell := range row {
					if tbl.Data.Kind(i) != report.KindPercent {
						continue
					}
					share := cell.(float64)
					assert.True(t, share >= 0 && share <= 1, "%s.%s = %v", tbl.Key, tbl.Data.Columns[i], share)
				}
			}
			assert.LessOrEqual(t, metricOrZero(r, "Repeat users"), metricOrZero(r, "Total scans"))
		}
	}
}

func metricOrZero(r *report.Report, label string) float64 {
	m, _ := r.Metric(label)
	return m.Value
}

func TestBuildRS2_outlierTimestampKeepsHourlyWindow(t *testing.T) {
	ancient := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 9, 1, 10, 5, 0, 0, time.UTC)
	records := []scans.Record{
		{AccountID: "A1", UserKey: "A1", VIN: "VIN1", CreatedAt: &ancient},
		{AccountID: "A1", UserKey: "A1", VIN: "VIN1", CreatedAt: &recent},
	}

	r := report.Build(report.RS2(), records, report.Options{GeneratedAt: recent})

	hourly := r.Data["hourly"]
	require.Len(t, hourly.Rows, 24)
	assert.Equal(t, recent.Truncate(time.Hour), hourly.Rows[23][0])
	assert.Equal(t, 1, hourly.Rows[23][2])
}

func TestBuildRS2_hugePartCountsStayPositive(t *testing.T) {
	huge := 1e30
	records := []scans.Record{
		{UserKey: "A1", VIN: "VIN1", MaintenanceParts: &huge, PredictedParts: &huge},
	}

	r := report.Build(report.RS2(), records, report.Options{GeneratedAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)})

	assert.Equal(t, huge, metric(t, r, "Maintenance parts (total)"))
	assert.Equal(t, huge, metric(t, r, "Predicted parts (total)"))
}

func TestDatasetMarshalJSON(t *testing.T) {
	d := report.Dataset{
		Columns: []string{"Hour", "Scans", "Share"},
		Rows: [][]any{
			{time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC), 3, nil},
		},
	}

	raw, err := json.Marshal(d)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"Hour":"2025-09-01T10:00:00Z","Scans":3,"Share":null}]`, string(raw))
	assert.True(t, strings.HasPrefix(string(raw), `[{"Hour"`), "column order is kept")
}
