package render

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"scan-report-dashboard/internal/report"
)

var printer = message.NewPrinter(language.English)

// FormatMetric renders a card value: counts as grouped integers, percents
// with one decimal and floats with two.
func FormatMetric(m report.Metric) string {
	return formatNumber(m.Value, m.Kind)
}

// FormatCell renders one table cell for display. Nil cells are blank.
func FormatCell(cell any, kind report.Kind) string {
	switch v := report.JSONValue(cell).(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return formatInt(int64(v), kind)
	case int64:
		return formatInt(v, kind)
	case float64:
		if kind == report.KindText {
			return fmt.Sprint(v)
		}
		return formatNumber(v, kind)
	default:
		return fmt.Sprint(v)
	}
}

func formatInt(v int64, kind report.Kind) string {
	if kind == report.KindText {
		return fmt.Sprint(v)
	}
	return formatNumber(float64(v), kind)
}

func formatNumber(v float64, kind report.Kind) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	switch kind {
	case report.KindPercent:
		return printer.Sprintf("%.1f%%", v*100)
	case report.KindFloat:
		return printer.Sprintf("%.2f", v)
	default:
		if math.Abs(v) >= math.MaxInt64 {
			return printer.Sprintf("%.0f", v)
		}
		return printer.Sprintf("%d", int64(math.Round(v)))
	}
}
