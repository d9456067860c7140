package scans

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinVehicleYear is the oldest model year counted towards vehicle age.
const MinVehicleYear = 1980

var stateCode = regexp.MustCompile(`^[A-Z]{2}$`)

// Timestamps must fit in int64 nanoseconds since the epoch
// (1677-09-21 to 2262-04-11). Placeholder dates such as 0001-01-01 fall
// outside and read as missing.
var (
	minTimestamp = time.Unix(0, math.MinInt64).UTC()
	maxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// NormalizeState trims and upper-cases a state value. Anything that is not
// exactly two letters after that comes back empty.
func NormalizeState(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if !stateCode.MatchString(value) {
		return ""
	}
	return value
}

// ParseTimestamp parses value leniently and returns the instant in UTC.
// Values without an offset are read as UTC. Empty, unparseable or
// out-of-range input yields nil.
func ParseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if isMissing(value) {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			if utc.Before(minTimestamp) || utc.After(maxTimestamp) {
				return nil
			}
			return &utc
		}
	}
	return nil
}

// ParseNumber coerces numeric text. Non-numeric, NaN and infinite values
// yield nil.
func ParseNumber(value string) *float64 {
	value = strings.TrimSpace(value)
	if isMissing(value) {
		return nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	return &parsed
}

// UserKey returns the first candidate that is not empty.
func UserKey(candidates ...string) string {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if !isMissing(candidate) {
			return candidate
		}
	}
	return ""
}

// VehicleLabel builds "<year> <make> <model>". The label is empty unless
// all three parts are usable.
func VehicleLabel(year *float64, vehicleMake, model string) string {
	if year == nil {
		return ""
	}
	vehicleMake = strings.TrimSpace(vehicleMake)
	model = strings.TrimSpace(model)
	if isMissing(vehicleMake) || isMissing(model) {
		return ""
	}
	return fmt.Sprintf("%d %s %s", int64(*year), vehicleMake, model)
}

// VehicleAge returns referenceYear-year for model years between
// MinVehicleYear and referenceYear inclusive.
func VehicleAge(year *float64, referenceYear int) *float64 {
	if year == nil {
		return nil
	}
	if *year < MinVehicleYear || *year > float64(referenceYear) {
		return nil
	}
	age := float64(referenceYear) - *year
	return &age
}

// isMissing reports whether a trimmed cell carries no value. Exported CSVs
// frequently spell missing values out literally.
func isMissing(value string) bool {
	switch strings.ToLower(value) {
	case "", "nan", "null", "none", "n/a", "na", "<na>", "nat":
		return true
	}
	return false
}

// Int64 truncates f toward zero. It reports false when the result does not
// fit in an int64.
func Int64(f float64) (int64, bool) {
	if f >= math.MaxInt64 || f < math.MinInt64 || math.IsNaN(f) {
		return 0, false
	}
	return int64(f), true
}
