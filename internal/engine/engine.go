// Package engine computes the tariff cost impact of imports.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

// BaseCurrency is the currency every calculation is expressed in.
const BaseCurrency = "USD"

// FallbackTariffRate is applied to the raw import value when reference data is unusable.
const FallbackTariffRate = 10.0

// Data source labels added by the engine.
const (
	DataSourceFallback         = "Fallback calculation"
	DataSourceLiveExchange     = "Live exchange rates"
	DataSourceCachedExchange   = "Cached exchange rates"
	DataSourceFallbackExchange = "Fallback exchange rates"
)

// Calculator composes tariff lookups and currency conversion into cost impact results.
type Calculator struct {
	tariffs   TariffLookup
	converter CurrencyConverter
	now       func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the time source stamped on results.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a calculator with the given dependencies.
func New(tariffs TariffLookup, converter CurrencyConverter, opts ...Option) *Calculator {
	c := &Calculator{
		tariffs:   tariffs,
		converter: converter,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate computes the cost impact of one import. It always returns a renderable
// result: any failure routes to the fixed-rate fallback and is reported through Err.
// A conversion served from the fallback exchange table is computed normally but
// marked medium confidence and reported as failed.
func (c *Calculator) Calculate(ctx context.Context, input model.CalculationInput) (res service.Result[model.CalculationResult]) {
	defer func() {
		if r := recover(); r != nil {
			err := common.RecoveredError(r)
			common.LogError(err, "Calculation panicked", common.Fields{"code": input.ClassificationCode})
			res = service.Failure(c.fallbackResult(input), err)
		}
	}()

	if err := input.Validate(); err != nil {
		return c.fail(input, err)
	}

	lookup := c.tariffs.GetClassificationData(ctx, input.ClassificationCode)
	if !lookup.OK() {
		return c.fail(input, fmt.Errorf("tariff lookup: %w", lookup.Err))
	}
	record := lookup.Value

	origin := strings.ToUpper(strings.TrimSpace(input.OriginCountry))
	entry, ok := record.Countries[origin]
	if !ok {
		return c.fail(input, fmt.Errorf("%w: %s (classification %s)", common.ErrNoCountryData, origin, record.Code))
	}

	confidence := model.ConfidenceHigh
	if record.IsGenerated() {
		confidence = model.ConfidenceLow
	}
	sources := []string{record.DataSource}

	convertedValue := input.ImportValue
	exchangeRateUsed := 1.0
	var degraded error

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency != BaseCurrency {
		conv := c.converter.Convert(ctx, 1, currency, BaseCurrency)
		if errors.Is(conv.Err, common.ErrRateUnavailable) {
			return c.fail(input, conv.Err)
		}

		exchangeRateUsed = conv.Value.Amount
		convertedValue = input.ImportValue * exchangeRateUsed
		sources = append(sources, exchangeLabel(conv.Value.Source))

		if !conv.OK() {
			degraded = fmt.Errorf("currency conversion: %w", conv.Err)
			if confidence == model.ConfidenceHigh {
				confidence = model.ConfidenceMedium
			}
		}
	}

	// A missing general kind is a zero rate; a missing country is not.
	tariffRate := 0.0
	if general, ok := entry.GeneralRate(); ok {
		tariffRate = general.Rate
	}

	result := c.compute(input, convertedValue, exchangeRateUsed, tariffRate)
	result.DataSources = sources
	result.Confidence = confidence

	slog.Debug("Calculated tariff impact",
		"code", record.Code,
		"origin", origin,
		"tariff_rate", tariffRate,
		"tariff_amount", result.TariffAmount,
		"confidence", confidence)

	if degraded != nil {
		return service.Failure(result, degraded)
	}
	return service.Success(result)
}

func (c *Calculator) fail(input model.CalculationInput, err error) service.Result[model.CalculationResult] {
	common.LogWarn("Calculation fell back to default tariff rate", common.Fields{
		"code":    input.ClassificationCode,
		"country": input.OriginCountry,
		"error":   err.Error(),
	})
	return service.Failure(c.fallbackResult(input), err)
}

func (c *Calculator) fallbackResult(input model.CalculationInput) model.CalculationResult {
	input = input.Finite()
	result := c.compute(input, input.ImportValue, 1, FallbackTariffRate)
	result.DataSources = []string{DataSourceFallback}
	result.Confidence = model.ConfidenceLow
	return result
}

func (c *Calculator) compute(input model.CalculationInput, convertedValue, exchangeRateUsed, tariffRate float64) model.CalculationResult {
	tariffAmount := convertedValue * tariffRate / 100
	totalLandedCost := convertedValue + tariffAmount + input.ShippingCost + input.InsuranceCost + input.WarehousingCost

	var effectiveRate, percentageIncrease float64
	if convertedValue > 0 {
		effectiveRate = (totalLandedCost - convertedValue) / convertedValue * 100
		percentageIncrease = tariffAmount / convertedValue * 100
	}

	return model.CalculationResult{
		Input:              input,
		TariffRate:         tariffRate,
		TariffAmount:       tariffAmount,
		TotalLandedCost:    totalLandedCost,
		EffectiveRate:      effectiveRate,
		MonthlyImpact:      tariffAmount,
		AnnualImpact:       tariffAmount * 12,
		PercentageIncrease: percentageIncrease,
		ExchangeRateUsed:   exchangeRateUsed,
		CalculatedAt:       c.now(),
	}
}

func exchangeLabel(src model.RateSource) string {
	switch src {
	case model.RateSourceCache:
		return DataSourceCachedExchange
	case model.RateSourceFallback:
		return DataSourceFallbackExchange
	default:
		return DataSourceLiveExchange
	}
}
