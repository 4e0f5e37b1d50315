// Package model contains domain models passed between layers.
package model

import "time"

// Decoder sources.
const (
	SourceStatic = "static"
	SourceVPIC   = "vpic"
)

// Record is the decoded form of a VIN. Records are values: re-decoding a
// VIN produces a new Record that replaces the stored one.
type Record struct {
	VIN          string    `json:"vin" yaml:"vin" parquet:"vin"`
	Manufacturer string    `json:"manufacturer" yaml:"manufacturer" parquet:"manufacturer"`
	Model        string    `json:"model,omitempty" yaml:"model,omitempty" parquet:"model,optional"`
	ModelYear    string    `json:"model_year,omitempty" yaml:"model_year,omitempty" parquet:"model_year,optional"`
	BodyClass    string    `json:"body_class,omitempty" yaml:"body_class,omitempty" parquet:"body_class,optional"`
	Region       string    `json:"region,omitempty" yaml:"region,omitempty" parquet:"region,optional"`
	Country      string    `json:"country,omitempty" yaml:"country,omitempty" parquet:"country,optional"`
	PlantCode    string    `json:"plant_code" yaml:"plant_code" parquet:"plant_code"`
	Serial       string    `json:"serial" yaml:"serial" parquet:"serial"`
	WMI          string    `json:"wmi" yaml:"wmi" parquet:"wmi"`
	Source       string    `json:"source" yaml:"source" parquet:"source"`
	DecodedAt    time.Time `json:"decoded_at" yaml:"decoded_at" parquet:"decoded_at"`
}

// Columns is the column order used by tabular exports.
var Columns = []string{
	"vin", "manufacturer", "model", "model_year", "body_class", "region",
	"country", "plant_code", "serial", "wmi", "source", "decoded_at",
}

// Row renders r in Columns order.
func (r Record) Row() []string {
	decodedAt := ""
	if !r.DecodedAt.IsZero() {
		decodedAt = r.DecodedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		r.VIN, r.Manufacturer, r.Model, r.ModelYear, r.BodyClass, r.Region,
		r.Country, r.PlantCode, r.Serial, r.WMI, r.Source, decodedAt,
	}
}

// WithDecodedAt returns a copy of r stamped with t.
func (r Record) WithDecodedAt(t time.Time) Record {
	r.DecodedAt = t.UTC()
	return r
}
