package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/service"
)

// DefaultEndpoint serves `GET <endpoint>/<BASE>` with a `{"rates": {...}}` body.
const DefaultEndpoint = "https://api.exchangerate-api.com/v4/latest"

// HTTPConfig configures the HTTP rate source.
type HTTPConfig struct {
	Endpoint          string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	RetryAttempts     int
	RetryMaxDelay     time.Duration
	RetryJitter       float64
}

// DefaultHTTPConfig returns the configuration used when nothing is set.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Endpoint:          DefaultEndpoint,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 2,
		Burst:             5,
		RetryAttempts:     1,
		RetryMaxDelay:     common.DefaultRetryMaxDelay,
		RetryJitter:       0.2,
	}
}

// HTTPSource fetches rates from a JSON endpoint.
type HTTPSource struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
	retry    service.RetryOptions
}

type ratesPayload struct {
	Rates map[string]float64 `json:"rates"`
}

// NewHTTPSource creates a source from cfg, filling unset fields with defaults.
func NewHTTPSource(cfg HTTPConfig) *HTTPSource {
	def := DefaultHTTPConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = def.RetryMaxDelay
	}
	if cfg.RetryJitter < 0 {
		cfg.RetryJitter = 0
	}

	return &HTTPSource{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		retry: service.RetryOptions{
			MaxAttempts:  cfg.RetryAttempts,
			InitialDelay: common.DefaultRetryInitialDelay,
			MaxDelay:     cfg.RetryMaxDelay,
			Multiplier:   common.DefaultRetryMultiplier,
			Jitter:       cfg.RetryJitter,
		},
	}
}

// Fetch implements RateSource.
func (s *HTTPSource) Fetch(ctx context.Context, base string) (map[string]float64, error) {
	var rates map[string]float64

	err := common.WithRetry(ctx, func() error {
		fetched, err := s.fetchOnce(ctx, base)
		if err != nil {
			return err
		}
		rates = fetched
		return nil
	}, s.retry)
	if err != nil {
		return nil, err
	}

	return rates, nil
}

func (s *HTTPSource) fetchOnce(ctx context.Context, base string) (map[string]float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := s.endpoint + "/" + url.PathEscape(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	slog.Debug("Requesting exchange rates", "base", base, "url", reqURL)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("failed to fetch rates: %w", err),
			Retryable: true,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := fmt.Errorf("exchange rate API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &common.RetryableError{
				Err:        fmt.Errorf("%w: %w", common.ErrRateLimit, statusErr),
				Retryable:  true,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		return nil, &common.RetryableError{
			Err:       statusErr,
			Retryable: resp.StatusCode >= 500,
		}
	}

	var payload ratesPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrMalformedRates, err)
	}

	rates := make(map[string]float64, len(payload.Rates))
	for code, r := range payload.Rates {
		if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
			slog.Debug("Skipping invalid exchange rate", "currency", code, "rate", r)
			continue
		}
		rates[code] = r
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: no rates in response", common.ErrMalformedRates)
	}

	return rates, nil
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP-date values
// and garbage yield zero so the regular backoff applies.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
