package model

import "time"

// BusinessProfile is a saved import profile: what the business imports and from where.
type BusinessProfile struct {
	CreatedAt           time.Time          `json:"created_at" yaml:"-"`
	UpdatedAt           time.Time          `json:"updated_at" yaml:"-"`
	ID                  string             `json:"id" yaml:"-"`
	Name                string             `json:"name" yaml:"name"`
	BusinessType        string             `json:"business_type" yaml:"business_type"`
	SourceCountries     []string           `json:"source_countries" yaml:"source_countries"`
	Products            []CalculationInput `json:"products" yaml:"products"`
	MonthlyImportVolume float64            `json:"monthly_import_volume" yaml:"monthly_import_volume"`
}

// HistoryEntry is a persisted calculation.
type HistoryEntry struct {
	CreatedAt time.Time         `json:"created_at"`
	ID        string            `json:"id"`
	Result    CalculationResult `json:"result"`
	Success   bool              `json:"success"`
}
