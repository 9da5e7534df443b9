package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidInput is returned when a CalculationInput fails validation.
var ErrInvalidInput = errors.New("invalid calculation input")

// ConfidenceLevel is a coarse indicator of how much a result can be trusted.
type ConfidenceLevel string

// Confidence levels.
const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// CalculationInput is the caller-supplied description of one imported product.
type CalculationInput struct {
	ClassificationCode string  `json:"classification_code" yaml:"classification_code"`
	ProductName        string  `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	OriginCountry      string  `json:"origin_country" yaml:"origin_country"`
	Currency           string  `json:"currency" yaml:"currency"`
	ImportValue        float64 `json:"import_value" yaml:"import_value"`
	ShippingCost       float64 `json:"shipping_cost,omitempty" yaml:"shipping_cost,omitempty"`
	InsuranceCost      float64 `json:"insurance_cost,omitempty" yaml:"insurance_cost,omitempty"`
	WarehousingCost    float64 `json:"warehousing_cost,omitempty" yaml:"warehousing_cost,omitempty"`
}

// AdditionalCosts returns shipping + insurance + warehousing.
func (in CalculationInput) AdditionalCosts() float64 {
	return in.ShippingCost + in.InsuranceCost + in.WarehousingCost
}

// Label names the product for summaries, preferring the product name.
func (in CalculationInput) Label() string {
	if in.ProductName != "" {
		return in.ProductName
	}
	return in.ClassificationCode
}

// Validate checks the fields the engine depends on.
func (in CalculationInput) Validate() error {
	if strings.TrimSpace(in.ClassificationCode) == "" {
		return fmt.Errorf("%w: missing classification code", ErrInvalidInput)
	}
	if strings.TrimSpace(in.OriginCountry) == "" {
		return fmt.Errorf("%w: missing origin country", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Currency) == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidInput)
	}
	if !isFinite(in.ImportValue) || in.ImportValue <= 0 {
		return fmt.Errorf("%w: import value must be a positive number, got %v", ErrInvalidInput, in.ImportValue)
	}
	for _, cost := range []float64{in.ShippingCost, in.InsuranceCost, in.WarehousingCost} {
		if !isFinite(cost) || cost < 0 {
			return fmt.Errorf("%w: additional costs must be non-negative numbers, got %v", ErrInvalidInput, cost)
		}
	}
	return nil
}

// Finite returns a copy of the input with NaN and infinite amounts replaced by zero.
func (in CalculationInput) Finite() CalculationInput {
	for _, v := range []*float64{&in.ImportValue, &in.ShippingCost, &in.InsuranceCost, &in.WarehousingCost} {
		if !isFinite(*v) {
			*v = 0
		}
	}
	return in
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CalculationResult is the cost impact of a single import.
type CalculationResult struct {
	CalculatedAt       time.Time        `json:"calculation_timestamp"`
	Confidence         ConfidenceLevel  `json:"confidence_level"`
	Input              CalculationInput `json:"input"`
	DataSources        []string         `json:"data_sources"`
	TariffRate         float64          `json:"tariff_rate"`
	TariffAmount       float64          `json:"tariff_amount"`
	TotalLandedCost    float64          `json:"total_landed_cost"`
	EffectiveRate      float64          `json:"effective_rate"`
	MonthlyImpact      float64          `json:"monthly_impact"`
	AnnualImpact       float64          `json:"annual_impact"`
	PercentageIncrease float64          `json:"percentage_increase"`
	ExchangeRateUsed   float64          `json:"exchange_rate_used"`
}

// BulkSummary aggregates a bulk analysis.
type BulkSummary struct {
	MostImpactedProduct  string  `json:"most_impacted_product"`
	TotalImportValue     float64 `json:"total_import_value"`
	TotalTariffCost      float64 `json:"total_tariff_cost"`
	AverageEffectiveRate float64 `json:"average_effective_rate"`
	HighestTariffRate    float64 `json:"highest_tariff_rate"`
}

// BulkAnalysisResult is the outcome of running many calculations as one scenario.
type BulkAnalysisResult struct {
	ScenarioName      string              `json:"scenario_name"`
	Products          []CalculationResult `json:"products"`
	Summary           BulkSummary         `json:"summary"`
	TotalTariffImpact float64             `json:"total_tariff_impact"`
	Excluded          int                 `json:"excluded_count"`
}
