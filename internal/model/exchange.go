package model

import "time"

// RateSource tags where exchange rates came from.
type RateSource string

// Exchange rate sources.
const (
	RateSourceLive     RateSource = "live"
	RateSourceCache    RateSource = "cache"
	RateSourceFallback RateSource = "fallback"
)

// ExchangeRateEntry is the rate of one currency relative to a base currency.
type ExchangeRateEntry struct {
	LastUpdated time.Time  `json:"last_updated"`
	Currency    string     `json:"currency"`
	Source      RateSource `json:"source"`
	Rate        float64    `json:"rate"`
}

// ExchangeRates maps a currency code to its entry for a single base currency.
type ExchangeRates map[string]ExchangeRateEntry

// WithSource returns a copy of the rates with every entry tagged src.
func (r ExchangeRates) WithSource(src RateSource) ExchangeRates {
	out := make(ExchangeRates, len(r))
	for code, entry := range r {
		entry.Source = src
		out[code] = entry
	}
	return out
}
