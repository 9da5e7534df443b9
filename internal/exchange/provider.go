// Package exchange provides currency conversion backed by a remote rate source,
// an hourly cache, and a static fallback table.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/tariff-impact/internal/cache"
	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

// DefaultTTL is how long fetched rates for a base currency stay fresh.
const DefaultTTL = time.Hour

// fallbackUSD holds the static rates relative to USD.
var fallbackUSD = map[string]float64{
	"USD": 1.0,
	"EUR": 0.85,
	"GBP": 0.73,
	"JPY": 110.0,
	"CAD": 1.25,
	"AUD": 1.35,
	"CHF": 0.92,
	"CNY": 6.45,
	"MXN": 20.5,
}

// RateSource fetches rates of every known currency relative to base.
type RateSource interface {
	Fetch(ctx context.Context, base string) (map[string]float64, error)
}

// Conversion is the outcome of converting an amount between currencies.
type Conversion struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Source model.RateSource `json:"source,omitempty"`
	Amount float64          `json:"amount"`
	Rate   float64          `json:"rate"`
}

// Provider serves exchange rates with a per-base-currency cache.
type Provider struct {
	source RateSource
	cache  *cache.TTLCache[model.ExchangeRates]
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache replaces the default in-memory cache.
func WithCache(c *cache.TTLCache[model.ExchangeRates]) Option {
	return func(p *Provider) {
		if c != nil {
			p.cache = c
		}
	}
}

// NewProvider creates a provider that fetches from source.
func NewProvider(source RateSource, opts ...Option) *Provider {
	p := &Provider{source: source}
	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		p.cache = cache.New[model.ExchangeRates](cache.NewMemoryStore[model.ExchangeRates](), DefaultTTL)
	}

	return p
}

// GetRates returns rates relative to base. When the source fails the static
// fallback table is returned as a failed Result that still carries usable rates.
func (p *Provider) GetRates(ctx context.Context, base string) service.Result[model.ExchangeRates] {
	base = normalizeCurrency(base)

	if rates, storedAt, ok := p.cache.Get(ctx, base); ok {
		common.LogDebug("Exchange rate cache hit", common.Fields{
			"base":       base,
			"expires_in": storedAt.Add(p.cache.TTL()).Sub(p.cache.Now()),
		})
		return service.Success(rates.WithSource(model.RateSourceCache))
	}

	raw, err := p.source.Fetch(ctx, base)
	if err != nil {
		common.LogWarn("Exchange rate fetch failed, using fallback table", common.Fields{
			"base":  base,
			"error": err.Error(),
		})
		return service.Failure(Fallback(base, p.cache.Now()), fmt.Errorf("%w: %w", common.ErrUpstream, err))
	}

	fetchedAt := p.cache.Now()
	rates := make(model.ExchangeRates, len(raw)+1)
	for code, rate := range raw {
		code = normalizeCurrency(code)
		rates[code] = model.ExchangeRateEntry{
			Currency:    code,
			Rate:        rate,
			LastUpdated: fetchedAt,
			Source:      model.RateSourceLive,
		}
	}
	rates[base] = model.ExchangeRateEntry{
		Currency:    base,
		Rate:        1.0,
		LastUpdated: fetchedAt,
		Source:      model.RateSourceLive,
	}

	if err := p.cache.Set(ctx, base, rates); err != nil {
		slog.Warn("Failed to cache exchange rates", "base", base, "error", err)
	}

	slog.Debug("Fetched live exchange rates", "base", base, "currencies", len(rates))
	return service.Success(rates)
}

// Convert converts amount from one currency to another. A missing target rate is a
// failure with a zero Conversion; fallback data yields a usable Conversion plus the
// upstream error.
func (p *Provider) Convert(ctx context.Context, amount float64, from, to string) service.Result[Conversion] {
	from = normalizeCurrency(from)
	to = normalizeCurrency(to)

	if from == to {
		return service.Success(Conversion{From: from, To: to, Amount: amount, Rate: 1})
	}

	res := p.GetRates(ctx, from)
	entry, ok := res.Value[to]
	if !ok {
		return service.Failure(Conversion{From: from, To: to},
			fmt.Errorf("%w: %s to %s", common.ErrRateUnavailable, from, to))
	}

	return service.Result[Conversion]{
		Value: Conversion{
			From:   from,
			To:     to,
			Source: entry.Source,
			Amount: amount * entry.Rate,
			Rate:   entry.Rate,
		},
		Err: res.Err,
	}
}

// Fallback returns the static table expressed relative to base. The table is stored
// relative to USD; other known bases get cross rates. An unknown base yields a table
// holding only the base itself.
func Fallback(base string, at time.Time) model.ExchangeRates {
	base = normalizeCurrency(base)

	entry := func(code string, rate float64) model.ExchangeRateEntry {
		return model.ExchangeRateEntry{
			Currency:    code,
			Rate:        rate,
			LastUpdated: at,
			Source:      model.RateSourceFallback,
		}
	}

	baseRate, ok := fallbackUSD[base]
	if !ok {
		return model.ExchangeRates{base: entry(base, 1.0)}
	}

	rates := make(model.ExchangeRates, len(fallbackUSD))
	for code, rate := range fallbackUSD {
		rates[code] = entry(code, rate/baseRate)
	}
	rates[base] = entry(base, 1.0)
	return rates
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
