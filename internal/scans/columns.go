package scans

import "strings"

// Column identifies one logical input field independently of how the CSV
// header spells it.
type Column string

const (
	ColCreated          Column = "CreatedDateTimeUTC"
	ColAccountID        Column = "AccountId"
	ColEmail            Column = "Email"
	ColVIN              Column = "VIN"
	ColState            Column = "State"
	ColYear             Column = "Year"
	ColMake             Column = "Make"
	ColModel            Column = "Model"
	ColMileage          Column = "Mileage"
	ColTotalAbsCodes    Column = "TotalAbsCodes"
	ColTotalSrsCodes    Column = "TotalSrsCodes"
	ColMaintenanceParts Column = "MaintenancePartsCount"
	ColPredictedParts   Column = "PredictedPartsCount"
	ColUsbProductID     Column = "UsbProductId"
	ColMILDTC           Column = "MIL DTC"
	ColMILParts         Column = "MIL Part Name"
	ColABSParts         Column = "ABS Part Name"
	ColSRSParts         Column = "SRS Part Name"
)

var columnAliases = map[Column][]string{
	ColCreated:          {"created_at", "createddatetime", "created", "timestamp"},
	ColAccountID:        {"account_id", "account", "user_id", "userid"},
	ColEmail:            {"email_address", "user_email"},
	ColVIN:              {"vin_number", "vehicle_vin"},
	ColState:            {"state_code", "region"},
	ColYear:             {"vehicle_year", "model_year"},
	ColMake:             {"vehicle_make"},
	ColModel:            {"vehicle_model"},
	ColMileage:          {"odometer", "miles"},
	ColTotalAbsCodes:    {"abs_codes", "abs_code_count"},
	ColTotalSrsCodes:    {"srs_codes", "srs_code_count"},
	ColMaintenanceParts: {"maintenance_parts"},
	ColPredictedParts:   {"predicted_parts"},
	ColUsbProductID:     {"usb_product_id", "tool_id"},
	ColMILDTC:           {"mil_dtc_code", "dtc"},
	ColMILParts:         {"mil_parts"},
	ColABSParts:         {"abs_parts"},
	ColSRSParts:         {"srs_parts"},
}

// Schema describes which columns a report variant reads. Required columns
// must be present in the header; optional ones read as empty when absent.
type Schema struct {
	Required []Column
	Optional []Column

	// UserKey lists the identifier columns tried in order when deriving
	// Record.UserKey.
	UserKey []Column
}

type header struct {
	index map[Column]int
}

func mapHeader(headers []string, schema Schema) (header, []Column) {
	colMap := normalizeHeaders(headers)
	h := header{index: map[Column]int{}}
	var missing []Column
	for _, col := range schema.Required {
		idx, ok := findColumn(colMap, col)
		if !ok {
			missing = append(missing, col)
			continue
		}
		h.index[col] = idx
	}
	for _, col := range append(append([]Column{}, schema.Optional...), schema.UserKey...) {
		if _, done := h.index[col]; done {
			continue
		}
		if idx, ok := findColumn(colMap, col); ok {
			h.index[col] = idx
		}
	}
	return h, missing
}

func (h header) value(record []string, col Column) string {
	idx, ok := h.index[col]
	if !ok {
		return ""
	}
	return getValue(record, idx)
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, name := range headers {
		if idx == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		normalized := normalizeHeader(name)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, col Column) (int, bool) {
	names := append([]string{string(col)}, columnAliases[col]...)
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
