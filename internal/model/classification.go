// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// ClassificationCode identifies a product category (HS-style, e.g. "8471.30.01").
type ClassificationCode string

// NormalizeCode strips every character except digits and the dot separator.
func NormalizeCode(raw string) ClassificationCode {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return ClassificationCode(b.String())
}

// RateType describes the legal basis of a tariff rate.
type RateType string

// Rate type constants.
const (
	RateTypeMFN            RateType = "mfn"
	RateTypeAdditional     RateType = "additional"
	RateTypeAntidumping    RateType = "antidumping"
	RateTypeCountervailing RateType = "countervailing"
)

// RateKind keys a rate within a country entry.
type RateKind string

// Rate kinds. General is the kind used for impact calculations.
const (
	RateKindGeneral        RateKind = "general"
	RateKindSection301     RateKind = "section301"
	RateKindAntidumping    RateKind = "antidumping"
	RateKindCountervailing RateKind = "countervailing"
)

// Rate is a single percentage rate applied to an import.
type Rate struct {
	EffectiveDate  time.Time `json:"effective_date"`
	Type           RateType  `json:"type"`
	TradeAgreement string    `json:"trade_agreement,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Rate           float64   `json:"rate"`
}

// CountryRateEntry holds the rates a classification carries for one origin country.
type CountryRateEntry struct {
	Rates            map[RateKind]Rate `json:"rates"`
	ImportVolume     *float64          `json:"import_volume,omitempty"`
	AverageUnitValue *float64          `json:"average_unit_value,omitempty"`
	CountryCode      string            `json:"country_code"`
	CountryName      string            `json:"country_name"`
}

// GeneralRate returns the general rate kind if the entry has one.
func (e CountryRateEntry) GeneralRate() (Rate, bool) {
	r, ok := e.Rates[RateKindGeneral]
	return r, ok
}

// Data source labels attached to classification records.
const (
	DataSourceStatic    = "Static tariff schedule"
	DataSourceGenerated = "Generated mock data"
)

// ClassificationRecord is the full rate data for one classification code.
// Records are replaced wholesale on refresh and never mutated after construction.
type ClassificationRecord struct {
	LastUpdated time.Time                   `json:"last_updated"`
	Countries   map[string]CountryRateEntry `json:"countries"`
	Code        ClassificationCode          `json:"code"`
	Description string                      `json:"description"`
	Category    string                      `json:"category"`
	Unit        string                      `json:"unit"`
	DataSource  string                      `json:"data_source"`
}

// IsGenerated reports whether the record rests on synthesized or mock data.
func (r ClassificationRecord) IsGenerated() bool {
	src := strings.ToLower(r.DataSource)
	return strings.Contains(src, "generated") || strings.Contains(src, "mock")
}

// Summary returns the searchable projection of the record.
func (r ClassificationRecord) Summary() ClassificationSummary {
	return ClassificationSummary{
		Code:        r.Code,
		Description: r.Description,
		Category:    r.Category,
	}
}

// ClassificationSummary is a search hit.
type ClassificationSummary struct {
	Code        ClassificationCode `json:"code"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
}
