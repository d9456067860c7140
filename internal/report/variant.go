// Package report turns normalized scan records into summary cards, ranked
// tables and chart datasets for one of the named report variants.
package report

import (
	"fmt"
	"sort"
	"time"

	"scan-report-dashboard/internal/scans"
	"scan-report-dashboard/internal/tally"
)

// RepeatRule decides what makes a user a repeat user.
type RepeatRule int

const (
	// RepeatByUser: the user key appears on more than one scan.
	RepeatByUser RepeatRule = iota
	// RepeatByUserVIN: the user scanned the same VIN at least twice.
	RepeatByUserVIN
)

// Variant is a named report configuration. The two variants deliberately
// keep their own user-key priority and repeat rule.
type Variant struct {
	Name          string
	Title         string
	DefaultInput  string
	DefaultOutput string
	Schema        scans.Schema
	Repeat        RepeatRule
	Bucket        tally.Bucket
	// Window is the number of most recent buckets kept; 0 keeps all.
	Window int

	build func(Variant, []scans.Record, Options) *Report
}

// Options carry run-level settings into Build.
type Options struct {
	Title         string
	GeneratedAt   time.Time
	ReferenceYear int
	Location      *time.Location
}

const (
	ScanRecordsName = "scan-records"
	RS2Name         = "rs2"
)

// ScanRecords is the account-level report: the user key is AccountId with
// Email as fallback, repeat users have more than one scan, and scans are
// bucketed per day.
func ScanRecords() Variant {
	return Variant{
		Name:          ScanRecordsName,
		Title:         "Scan Records Dashboard",
		DefaultInput:  "scan_records.csv",
		DefaultOutput: "index.html",
		Schema: scans.Schema{
			Required: []scans.Column{scans.ColCreated, scans.ColAccountID, scans.ColEmail, scans.ColVIN, scans.ColState},
			UserKey:  []scans.Column{scans.ColAccountID, scans.ColEmail},
		},
		Repeat: RepeatByUser,
		Bucket: tally.Daily,
		build:  buildScanRecords,
	}
}

// RS2 is the diagnostic report: the user key is AccountId only, repeat
// users re-scanned the same VIN, and the series covers the latest 24 hours
// of data.
func RS2() Variant {
	return Variant{
		Name:          RS2Name,
		Title:         "RS2 Diagnostic Scans",
		DefaultInput:  "rs2_dr_0901.csv",
		DefaultOutput: "rs2_dashboard.html",
		Schema: scans.Schema{
			Required: []scans.Column{
				scans.ColCreated, scans.ColAccountID, scans.ColVIN, scans.ColState,
				scans.ColYear, scans.ColMake, scans.ColModel, scans.ColMileage,
				scans.ColTotalAbsCodes, scans.ColTotalSrsCodes,
				scans.ColMaintenanceParts, scans.ColPredictedParts, scans.ColUsbProductID,
				scans.ColMILDTC, scans.ColMILParts, scans.ColABSParts, scans.ColSRSParts,
			},
			UserKey: []scans.Column{scans.ColAccountID},
		},
		Repeat: RepeatByUserVIN,
		Bucket: tally.Hourly,
		Window: 24,
		build:  buildRS2,
	}
}

// Lookup returns the variant registered under name.
func Lookup(name string) (Variant, error) {
	switch name {
	case ScanRecordsName:
		return ScanRecords(), nil
	case RS2Name:
		return RS2(), nil
	}
	return Variant{}, fmt.Errorf("unknown report variant %q", name)
}

// Build aggregates records into a report.
func Build(v Variant, records []scans.Record, opts Options) *Report {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	r := v.build(v, records, opts)
	r.Variant = v.Name
	r.Title = v.Title
	if opts.Title != "" {
		r.Title = opts.Title
	}
	r.GeneratedAt = opts.GeneratedAt
	r.TotalScans = len(records)
	return r
}

func newReport() *Report {
	return &Report{Data: map[string]Dataset{}}
}

// repeatUsers returns the repeat user keys in first-seen order.
func repeatUsers(records []scans.Record, rule RepeatRule) []string {
	var out []string
	switch rule {
	case RepeatByUserVIN:
		type pair struct{ user, vin string }
		pairs := tally.NewCounter[pair]()
		for _, rec := range records {
			if rec.UserKey == "" || rec.VIN == "" {
				continue
			}
			pairs.Add(pair{rec.UserKey, rec.VIN})
		}
		seen := map[string]bool{}
		for _, p := range pairs.Keys() {
			if pairs.Get(p) >= 2 && !seen[p.user] {
				seen[p.user] = true
				out = append(out, p.user)
			}
		}
	default:
		users := userCounts(records)
		for _, user := range users.Keys() {
			if users.Get(user) > 1 {
				out = append(out, user)
			}
		}
	}
	return out
}

func userCounts(records []scans.Record) *tally.Counter[string] {
	users := tally.NewCounter[string]()
	for _, rec := range records {
		if rec.UserKey != "" {
			users.Add(rec.UserKey)
		}
	}
	return users
}

func stateCounts(records []scans.Record, keep func(scans.Record) bool) *tally.Counter[string] {
	states := tally.NewCounter[string]()
	for _, rec := range records {
		if rec.State == "" || (keep != nil && !keep(rec)) {
			continue
		}
		states.Add(rec.State)
	}
	return states
}

// distinctUsersByState counts distinct user keys per state.
func distinctUsersByState(records []scans.Record, keep func(scans.Record) bool) map[string]int {
	seen := map[[2]string]bool{}
	out := map[string]int{}
	for _, rec := range records {
		if rec.State == "" || rec.UserKey == "" || (keep != nil && !keep(rec)) {
			continue
		}
		k := [2]string{rec.State, rec.UserKey}
		if seen[k] {
			continue
		}
		seen[k] = true
		out[rec.State]++
	}
	return out
}

func createdTimes(records []scans.Record) []*time.Time {
	out := make([]*time.Time, len(records))
	for i, rec := range records {
		out[i] = rec.CreatedAt
	}
	return out
}

func set(keys []string) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func topDataset[K comparable](entries []tally.Entry[K], keyCol, countCol string) Dataset {
	d := Dataset{Columns: []string{keyCol, countCol}, Kinds: []Kind{KindText, KindCount}, Rows: [][]any{}}
	for _, e := range entries {
		d.Rows = append(d.Rows, []any{e.Key, e.Count})
	}
	return d
}
