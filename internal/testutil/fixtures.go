package testutil

import (
	"time"

	"github.com/Veraticus/tariff-impact/internal/model"
)

// FixedTime is the timestamp used by fixtures.
var FixedTime = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

// Input returns a USD calculation input.
func Input(code, country string, value float64) model.CalculationInput {
	return model.CalculationInput{
		ClassificationCode: code,
		OriginCountry:      country,
		ImportValue:        value,
		Currency:           "USD",
	}
}

// Result returns a high-confidence result for a USD input taxed at rate percent.
func Result(code, country string, value, rate float64) model.CalculationResult {
	tariff := value * rate / 100
	return model.CalculationResult{
		Input:            Input(code, country, value),
		TariffRate:       rate,
		TariffAmount:     tariff,
		TotalLandedCost:  value + tariff,
		EffectiveRate:    rate,
		MonthlyImpact:    tariff,
		AnnualImpact:     tariff * 12,
		ExchangeRateUsed: 1,
		CalculatedAt:     FixedTime,
		DataSources:      []string{model.DataSourceStatic, "Live exchange rates"},
		Confidence:       model.ConfidenceHigh,
	}
}

// ProfileBuilder provides a fluent interface for constructing test profiles.
type ProfileBuilder struct {
	profile model.BusinessProfile
}

// NewProfileBuilder starts a profile with the given name.
func NewProfileBuilder(name string) *ProfileBuilder {
	return &ProfileBuilder{profile: model.BusinessProfile{Name: name}}
}

// WithBusinessType sets the business type.
func (b *ProfileBuilder) WithBusinessType(kind string) *ProfileBuilder {
	b.profile.BusinessType = kind
	return b
}

// WithCountries sets the source countries.
func (b *ProfileBuilder) WithCountries(codes ...string) *ProfileBuilder {
	b.profile.SourceCountries = append(b.profile.SourceCountries, codes...)
	return b
}

// WithVolume sets the monthly import volume.
func (b *ProfileBuilder) WithVolume(v float64) *ProfileBuilder {
	b.profile.MonthlyImportVolume = v
	return b
}

// WithProduct adds a USD product.
func (b *ProfileBuilder) WithProduct(code, country string, value float64) *ProfileBuilder {
	b.profile.Products = append(b.profile.Products, Input(code, country, value))
	return b
}

// WithInput adds an arbitrary product.
func (b *ProfileBuilder) WithInput(in model.CalculationInput) *ProfileBuilder {
	b.profile.Products = append(b.profile.Products, in)
	return b
}

// WithElectronics adds a laptop and a smartphone line sourced from China and Vietnam.
func (b *ProfileBuilder) WithElectronics() *ProfileBuilder {
	return b.WithCountries("CN", "VN").
		WithProduct("8471.30.01", "CN", 10000).
		WithProduct("8517.13.00", "VN", 5000)
}

// Build returns a copy of the profile.
func (b *ProfileBuilder) Build() *model.BusinessProfile {
	p := b.profile
	p.SourceCountries = append([]string(nil), b.profile.SourceCountries...)
	p.Products = append([]model.CalculationInput(nil), b.profile.Products...)
	return &p
}
