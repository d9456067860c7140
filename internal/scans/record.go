package scans

import "time"

// Record is one normalized scan event. Empty strings and nil pointers mean
// the source cell was missing or failed normalization.
type Record struct {
	AccountID string
	Email     string
	// UserKey is the first non-empty identifier from Schema.UserKey.
	UserKey string
	VIN     string
	// State is a two-letter upper-case code or empty.
	State string

	CreatedAt    *time.Time // UTC
	CreatedLocal *time.Time // CreatedAt in the configured display zone

	Year          *float64
	Make          string
	Model         string
	Mileage       *float64
	TotalAbsCodes *float64
	TotalSrsCodes *float64

	MaintenanceParts *float64
	PredictedParts   *float64
	UsbProductID     *int64

	MILDTC   string
	MILParts string
	ABSParts string
	SRSParts string

	// Derived.
	VehicleAge *float64
	Vehicle    string
}
