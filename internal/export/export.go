// Package export writes a built report as JSON or as one CSV per table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"scan-report-dashboard/internal/report"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(path string, r *report.Report) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Close()
}

// WriteTablesCSV writes dir/<key>.csv for every ranked table and returns
// the paths written. Files carry a UTF-8 BOM so spreadsheet tools pick
// the right encoding.
func WriteTablesCSV(dir string, r *report.Report) ([]string, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	var paths []string
	for _, t := range r.Tables {
		path := filepath.Join(dir, t.Key+".csv")
		if err := writeTable(path, t.Data); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeTable(path string, d report.Dataset) error {
	f, w, err := csvFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.Write(d.Columns); err != nil {
		return err
	}
	for _, row := range d.Rows {
		record := make([]string, len(d.Columns))
		for i := range record {
			if i < len(row) {
				record[i] = cellString(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func csvFile(path string) (*os.File, *csv.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func cellString(cell any) string {
	switch v := report.JSONValue(cell).(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
