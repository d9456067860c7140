package report

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// Kind says how a value is meant to be displayed.
type Kind string

const (
	KindCount   Kind = "count"
	KindPercent Kind = "percent"
	KindFloat   Kind = "float"
	KindText    Kind = "text"
)

// Metric is one summary card.
type Metric struct {
	Label       string  `json:"label"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Kind        Kind    `json:"kind"`
}

// Dataset is a small column-ordered table. Cells hold string, int,
// int64, float64, time.Time or nil.
type Dataset struct {
	Columns []string
	Kinds   []Kind
	Rows    [][]any
}

// Len is the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Head returns a copy limited to the first n rows.
func (d Dataset) Head(n int) Dataset {
	rows := d.Rows
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return Dataset{Columns: d.Columns, Kinds: d.Kinds, Rows: append([][]any(nil), rows...)}
}

// Kind returns the display kind of column i.
func (d Dataset) Kind(i int) Kind {
	if i < len(d.Kinds) && d.Kinds[i] != "" {
		return d.Kinds[i]
	}
	return KindText
}

// MarshalJSON encodes the dataset as an array of objects whose keys keep
// column order. Times become RFC 3339 strings and NaN becomes null.
func (d Dataset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range d.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range d.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			var cell any
			if j < len(row) {
				cell = row[j]
			}
			value, err := json.Marshal(JSONValue(cell))
			if err != nil {
				return nil, err
			}
			buf.Write(value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// JSONValue maps a cell to its JSON-safe form.
func JSONValue(cell any) any {
	switch v := cell.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return v.Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.Format(time.RFC3339)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case *float64:
		if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil
		}
		return *v
	}
	return cell
}

// Table is a ranked table shown in the report with a CSV download.
type Table struct {
	Key   string  `json:"key"`
	Title string  `json:"title"`
	Data  Dataset `json:"rows"`
}

// ChartType selects the client-side trace type.
type ChartType string

const (
	ChartLine       ChartType = "line"
	ChartBar        ChartType = "bar"
	ChartChoropleth ChartType = "choropleth"
)

// ChartSpec tells the page's renderer how to draw one dataset.
type ChartSpec struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Type          ChartType `json:"type"`
	DataKey       string    `json:"dataKey"`
	X             string    `json:"x"`
	Y             string    `json:"y"`
	Accent        string    `json:"accent,omitempty"`
	ColorScale    []string  `json:"colorScale,omitempty"`
	ColorbarTitle string    `json:"colorbarTitle,omitempty"`
	TickAngle     int       `json:"tickAngle,omitempty"`
	Filename      string    `json:"filename"`
}

// Report is everything the renderer and exporters need.
type Report struct {
	Variant     string             `json:"variant"`
	Title       string             `json:"title"`
	GeneratedAt time.Time          `json:"generated_at"`
	TotalScans  int                `json:"total_scans"`
	Metrics     []Metric           `json:"metrics"`
	Tables      []Table            `json:"tables"`
	Charts      []ChartSpec        `json:"charts"`
	Data        map[string]Dataset `json:"data"`
}

// Table returns the table registered under key.
func (r *Report) Table(key string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Key == key {
			return t, true
		}
	}
	return Table{}, false
}

// Metric returns the card with the given label.
func (r *Report) Metric(label string) (Metric, bool) {
	for _, m := range r.Metrics {
		if m.Label == label {
			return m, true
		}
	}
	return Metric{}, false
}

func (r *Report) addTable(key, title string, data Dataset) {
	r.Tables = append(r.Tables, Table{Key: key, Title: title, Data: data})
	r.Data[key] = data
}
