package scans

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Options control the derived fields computed at load time.
type Options struct {
	ReferenceYear int
	// Location is the display zone for Record.CreatedLocal. Nil means UTC.
	Location *time.Location
}

// LoadResult holds the normalized records and what happened to the cells
// along the way.
type LoadResult struct {
	Records   []Record
	Rows      int
	// BlankRows counts rows with every cell empty; they stay in Records.
	BlankRows int
	// Nulled counts non-empty cells per column that failed normalization.
	Nulled map[Column]int
}

// Load reads and normalizes the CSV at path.
func Load(path string, schema Schema, opts Options) (LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return LoadResult{}, err
	}
	defer file.Close()

	result, err := Read(file, schema, opts)
	if err != nil {
		return LoadResult{}, fmt.Errorf("%s: %w", path, err)
	}
	return result, nil
}

// Read normalizes CSV data from r. Cell-level problems never fail the
// read; a missing header or required column does.
func Read(r io.Reader, schema Schema, opts Options) (LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return LoadResult{}, errors.New("input is empty: no header row")
		}
		return LoadResult{}, fmt.Errorf("unable to read header: %w", err)
	}

	h, missing := mapHeader(headers, schema)
	if len(missing) > 0 {
		names := make([]string, len(missing))
		for i, col := range missing {
			names[i] = string(col)
		}
		return LoadResult{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(names, ", "))
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	result := LoadResult{Nulled: map[Column]int{}}

	for {
		raw, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return LoadResult{}, fmt.Errorf("unable to read CSV: %w", err)
		}
		if blank(raw) {
			result.BlankRows++
		}
		result.Rows++
		result.Records = append(result.Records, buildRecord(h, raw, schema, opts.ReferenceYear, loc, result.Nulled))
	}
	return result, nil
}

func buildRecord(h header, raw []string, schema Schema, referenceYear int, loc *time.Location, nulled map[Column]int) Record {
	text := func(col Column) string {
		value := h.value(raw, col)
		if isMissing(value) {
			return ""
		}
		return value
	}
	number := func(col Column) *float64 {
		value := h.value(raw, col)
		parsed := ParseNumber(value)
		if parsed == nil && !isMissing(value) {
			nulled[col]++
		}
		return parsed
	}

	rec := Record{
		AccountID: text(ColAccountID),
		Email:     text(ColEmail),
		VIN:       text(ColVIN),
		Make:      text(ColMake),
		Model:     text(ColModel),
		MILDTC:    text(ColMILDTC),
		MILParts:  text(ColMILParts),
		ABSParts:  text(ColABSParts),
		SRSParts:  text(ColSRSParts),

		Year:             number(ColYear),
		Mileage:          number(ColMileage),
		TotalAbsCodes:    number(ColTotalAbsCodes),
		TotalSrsCodes:    number(ColTotalSrsCodes),
		MaintenanceParts: number(ColMaintenanceParts),
		PredictedParts:   number(ColPredictedParts),
	}

	if rawState := h.value(raw, ColState); rawState != "" {
		rec.State = NormalizeState(rawState)
		if rec.State == "" && !isMissing(rawState) {
			nulled[ColState]++
		}
	}

	if rawCreated := h.value(raw, ColCreated); rawCreated != "" {
		rec.CreatedAt = ParseTimestamp(rawCreated)
		if rec.CreatedAt == nil {
			if !isMissing(rawCreated) {
				nulled[ColCreated]++
			}
		} else {
			local := rec.CreatedAt.In(loc)
			rec.CreatedLocal = &local
		}
	}

	if usb := number(ColUsbProductID); usb != nil {
		if id, ok := Int64(*usb); ok {
			rec.UsbProductID = &id
		} else {
			nulled[ColUsbProductID]++
		}
	}

	keys := make([]string, 0, len(schema.UserKey))
	for _, col := range schema.UserKey {
		keys = append(keys, h.value(raw, col))
	}
	rec.UserKey = UserKey(keys...)

	rec.Vehicle = VehicleLabel(rec.Year, rec.Make, rec.Model)
	rec.VehicleAge = VehicleAge(rec.Year, referenceYear)
	return rec
}

func blank(raw []string) bool {
	for _, cell := range raw {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
