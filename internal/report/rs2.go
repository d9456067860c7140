package report

import (
	"fmt"
	"math"

	"scan-report-dashboard/internal/scans"
	"scan-report-dashboard/internal/tally"
)

const (
	topVehicles  = 10
	topUsbTools  = 5
	topDTCs      = 10
	topDTCParts  = 3
	topPartNames = 10
	topStates    = 10
)

func buildRS2(v Variant, records []scans.Record, opts Options) *Report {
	r := newReport()
	totalScans := len(records)

	var ages, mileage, absCodes, srsCodes, maintenance, predicted []*float64
	vins := tally.NewCounter[string]()
	vehicles := tally.NewCounter[string]()
	usb := tally.NewCounter[int64]()
	dtcs := tally.NewCounter[string]()
	dtcParts := map[string]*tally.Counter[string]{}
	var absParts, srsParts []string

	for _, rec := range records {
		ages = append(ages, rec.VehicleAge)
		mileage = append(mileage, rec.Mileage)
		absCodes = append(absCodes, rec.TotalAbsCodes)
		srsCodes = append(srsCodes, rec.TotalSrsCodes)
		maintenance = append(maintenance, rec.MaintenanceParts)
		predicted = append(predicted, rec.PredictedParts)

		if rec.VIN != "" {
			vins.Add(rec.VIN)
		}
		if rec.Vehicle != "" {
			vehicles.Add(rec.Vehicle)
		}
		if rec.UsbProductID != nil {
			usb.Add(*rec.UsbProductID)
		}
		if rec.MILDTC != "" {
			dtcs.Add(rec.MILDTC)
			parts, ok := dtcParts[rec.MILDTC]
			if !ok {
				parts = tally.NewCounter[string]()
				dtcParts[rec.MILDTC] = parts
			}
			for _, token := range tally.Tokens(rec.MILParts, ";") {
				parts.Add(token)
			}
		}
		absParts = append(absParts, rec.ABSParts)
		srsParts = append(srsParts, rec.SRSParts)
	}

	users := userCounts(records)
	repeatIDs := repeatUsers(records, v.Repeat)
	isRepeat := set(repeatIDs)
	scannedUsers := users.Len()

	r.Metrics = []Metric{
		{Label: "Total scans", Value: float64(totalScans), Description: "All scan events in the dataset.", Kind: KindCount},
		{Label: "Total scanned users", Value: float64(scannedUsers), Description: "Distinct AccountId values with at least one scan.", Kind: KindCount},
		{Label: "Average vehicle age", Value: tally.Mean(ages), Description: fmt.Sprintf("Mean of (%d - Year) for valid years.", opts.ReferenceYear), Kind: KindFloat},
		{Label: "Average mileage", Value: tally.Mean(mileage), Description: "Mean of mileage across scans.", Kind: KindFloat},
		{Label: "Average ABS code count", Value: tally.Mean(absCodes), Description: "Mean of TotalAbsCodes where present.", Kind: KindFloat},
		{Label: "Average SRS code count", Value: tally.Mean(srsCodes), Description: "Mean of TotalSrsCodes where present.", Kind: KindFloat},
		{Label: "Maintenance parts (total)", Value: math.Trunc(tally.Sum(maintenance)), Description: "Sum of MaintenancePartsCount.", Kind: KindCount},
		{Label: "Predicted parts (total)", Value: math.Trunc(tally.Sum(predicted)), Description: "Sum of PredictedPartsCount.", Kind: KindCount},
		{Label: "Unique VINs", Value: float64(vins.Len()), Description: "Distinct VINs scanned.", Kind: KindCount},
		{Label: "Repeat users", Value: float64(len(repeatIDs)), Description: "AccountId values that scanned the same VIN at least twice.", Kind: KindCount},
		{Label: "Repeat user share", Value: tally.Ratio(float64(len(repeatIDs)), float64(scannedUsers)), Description: "Share of scanned users who repeated on the same VIN.", Kind: KindPercent},
	}

	milDTC := Dataset{
		Columns: []string{"MIL DTC", "Scans", "Top Parts"},
		Kinds:   []Kind{KindText, KindCount, KindText},
		Rows:    [][]any{},
	}
	for _, e := range dtcs.Top(topDTCs) {
		milDTC.Rows = append(milDTC.Rows, []any{e.Key, e.Count, tally.FormatTop(dtcParts[e.Key].Top(topDTCParts), "n/a")})
	}

	r.addTable("top_vehicles", "Top 10 vehicles (Year, Make, Model)", topDataset(vehicles.Top(topVehicles), "Vehicle", "Scans"))
	r.addTable("top_usb", "Top 5 scan tools (UsbProductId)", topDataset(usb.Top(topUsbTools), "UsbProductId", "Scans"))
	r.addTable("mil_dtc", "Top 10 MIL DTC with common parts", milDTC)
	r.addTable("abs_parts", "Top 10 ABS part names", topDataset(tally.CountTokens(absParts...).Top(topPartNames), "ABS Part Name", "Mentions"))
	r.addTable("srs_parts", "Top 10 SRS part names", topDataset(tally.CountTokens(srsParts...).Top(topPartNames), "SRS Part Name", "Mentions"))

	byState := topDataset(stateCounts(records, nil).Top(0), "State", "Scans")
	r.Data["scans_by_state"] = byState
	r.Data["top_states"] = byState.Head(topStates)

	repeatByState := distinctUsersByState(records, func(rec scans.Record) bool { return isRepeat[rec.UserKey] })
	repeatUsersByState := Dataset{Columns: []string{"State", "RepeatUsers"}, Kinds: []Kind{KindText, KindCount}, Rows: [][]any{}}
	for _, state := range sortedKeys(repeatByState) {
		repeatUsersByState.Rows = append(repeatUsersByState.Rows, []any{state, repeatByState[state]})
	}
	r.Data["repeat_users_by_state"] = repeatUsersByState

	points := tally.Series(createdTimes(records), v.Bucket, v.Window)
	hourly := Dataset{Columns: []string{"Hour", "HourLocal", "Scans"}, Kinds: []Kind{KindText, KindText, KindCount}, Rows: [][]any{}}
	for _, p := range points {
		hourly.Rows = append(hourly.Rows, []any{p.Start, p.Start.In(opts.Location), p.Count})
	}
	r.Data["hourly"] = hourly

	r.Charts = []ChartSpec{
		{ID: "hourly-chart", Title: "Scans in the last 24 hours (UTC, by hour)", Type: ChartLine, DataKey: "hourly", X: "Hour", Y: "Scans", Accent: "accent1", Filename: "hourly_scans"},
		{ID: "state-map", Title: "Scans by state", Type: ChartChoropleth, DataKey: "scans_by_state", X: "State", Y: "Scans", ColorScale: []string{"#e0f2fe", "#1d4ed8"}, ColorbarTitle: "Scans", Filename: "state_map"},
		{ID: "repeat-map", Title: "Repeat users by state", Type: ChartChoropleth, DataKey: "repeat_users_by_state", X: "State", Y: "RepeatUsers", ColorScale: []string{"#dcfce7", "#166534"}, ColorbarTitle: "Repeat users", Filename: "repeat_user_map"},
		{ID: "state-bar", Title: "Top states by scans", Type: ChartBar, DataKey: "top_states", X: "State", Y: "Scans", Accent: "accent1", Filename: "top_states"},
		{ID: "vehicle-bar", Title: "Top vehicles by scans", Type: ChartBar, DataKey: "top_vehicles", X: "Vehicle", Y: "Scans", Accent: "accent2", TickAngle: -40, Filename: "top_vehicles"},
	}
	return r
}
