package report

import (
	"scan-report-dashboard/internal/scans"
	"scan-report-dashboard/internal/tally"
)

func buildScanRecords(v Variant, records []scans.Record, _ Options) *Report {
	r := newReport()
	totalScans := len(records)

	users := userCounts(records)
	repeatIDs := repeatUsers(records, v.Repeat)
	isRepeat := set(repeatIDs)

	repeatUserScans := 0
	for _, user := range repeatIDs {
		repeatUserScans += users.Get(user)
	}
	uniqueUsers := users.Len()
	repeatUserCount := len(repeatIDs)

	vins := tally.NewCounter[string]()
	for _, rec := range records {
		if rec.VIN != "" {
			vins.Add(rec.VIN)
		}
	}
	multiScanVINs := 0
	for _, vin := range vins.Keys() {
		if vins.Get(vin) > 1 {
			multiScanVINs++
		}
	}

	r.Metrics = []Metric{
		{Label: "Total scans", Value: float64(totalScans), Description: "All scan events in the dataset.", Kind: KindCount},
		{Label: "Repeat-user scans", Value: float64(repeatUserScans), Description: "Scan events coming from repeat users.", Kind: KindCount},
		{Label: "Repeat-user scan share", Value: tally.Ratio(float64(repeatUserScans), float64(totalScans)), Description: "Share of total scans that came from repeat users.", Kind: KindPercent},
		{Label: "Unique users", Value: float64(uniqueUsers), Description: "Distinct users (AccountId fallback to Email) with at least one scan.", Kind: KindCount},
		{Label: "Repeat users", Value: float64(repeatUserCount), Description: "Users with more than one scan overall.", Kind: KindCount},
		{Label: "Repeat-user share", Value: tally.Ratio(float64(repeatUserCount), float64(uniqueUsers)), Description: "Share of users who are repeat users (scanned >1).", Kind: KindPercent},
		{Label: "Unique VINs", Value: float64(vins.Len()), Description: "Distinct VINs scanned at least once.", Kind: KindCount},
		{Label: "VINs scanned multiple times", Value: float64(multiScanVINs), Description: "VINs with more than one scan.", Kind: KindCount},
	}

	byRepeatUser := func(rec scans.Record) bool { return isRepeat[rec.UserKey] }
	states := stateCounts(records, nil).Top(0)
	repeatStates := stateCounts(records, byRepeatUser)
	usersInState := distinctUsersByState(records, nil)
	repeatUsersInState := distinctUsersByState(records, byRepeatUser)

	stateSummary := Dataset{
		Columns: []string{"state", "total_scans", "repeat_scans", "repeat_scan_share", "scan_share"},
		Kinds:   []Kind{KindText, KindCount, KindCount, KindPercent, KindPercent},
		Rows:    [][]any{},
	}
	repeatUserState := Dataset{
		Columns: []string{"state", "repeat_users", "repeat_user_share_all_repeat", "repeat_user_share_in_state"},
		Kinds:   []Kind{KindText, KindCount, KindPercent, KindPercent},
		Rows:    [][]any{},
	}
	for _, s := range states {
		repeatScans := repeatStates.Get(s.Key)
		stateSummary.Rows = append(stateSummary.Rows, []any{
			s.Key,
			s.Count,
			repeatScans,
			tally.Ratio(float64(repeatScans), float64(s.Count)),
			tally.Ratio(float64(s.Count), float64(totalScans)),
		})
		stateRepeatUsers := repeatUsersInState[s.Key]
		repeatUserState.Rows = append(repeatUserState.Rows, []any{
			s.Key,
			stateRepeatUsers,
			tally.Ratio(float64(stateRepeatUsers), float64(repeatUserCount)),
			tally.Ratio(float64(stateRepeatUsers), float64(usersInState[s.Key])),
		})
	}

	byDay := Dataset{Columns: []string{"Date", "Scans"}, Kinds: []Kind{KindText, KindCount}, Rows: [][]any{}}
	for _, p := range tally.Series(createdTimes(records), v.Bucket, v.Window) {
		byDay.Rows = append(byDay.Rows, []any{p.Start, p.Count})
	}

	r.addTable("state_summary", "Scans by state", stateSummary)
	r.addTable("repeat_user_state", "Repeat users by state", repeatUserState)
	r.Data["scans_by_day"] = byDay
	r.Data["top_states"] = stateSummary.Head(10)

	r.Charts = []ChartSpec{
		{ID: "timeseries", Title: "Daily scans", Type: ChartLine, DataKey: "scans_by_day", X: "Date", Y: "Scans", Accent: "accent1", Filename: "daily_scans"},
		{ID: "top-states", Title: "Top states by scans", Type: ChartBar, DataKey: "top_states", X: "state", Y: "total_scans", Accent: "accent1", Filename: "top_states"},
		{ID: "map-all", Title: "Scans by state", Type: ChartChoropleth, DataKey: "state_summary", X: "state", Y: "total_scans", ColorScale: []string{"#e0f2fe", "#1d4ed8"}, ColorbarTitle: "Scans", Filename: "state_map"},
		{ID: "repeat-user-map", Title: "Repeat users by state", Type: ChartChoropleth, DataKey: "repeat_user_state", X: "state", Y: "repeat_users", ColorScale: []string{"#dcfce7", "#166534"}, ColorbarTitle: "Repeat users", Filename: "repeat_user_map"},
	}
	return r
}
