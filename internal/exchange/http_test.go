package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Fetch(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantRates  map[string]float64
		anyFailure bool
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      `{"base":"USD","rates":{"USD":1,"EUR":0.91,"JPY":149.5}}`,
			wantRates: map[string]float64{"USD": 1, "EUR": 0.91, "JPY": 149.5},
		},
		{
			name:      "invalid entries are dropped",
			status:    http.StatusOK,
			body:      `{"rates":{"EUR":0.91,"BAD":0,"NEG":-2}}`,
			wantRates: map[string]float64{"EUR": 0.91},
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{"rates":`,
			wantErr: common.ErrMalformedRates,
		},
		{
			name:    "empty rates",
			status:  http.StatusOK,
			body:    `{"rates":{}}`,
			wantErr: common.ErrMalformedRates,
		},
		{
			name:       "server error",
			status:     http.StatusBadGateway,
			body:       `upstream down`,
			anyFailure: true,
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `unsupported base`,
			anyFailure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := NewHTTPSource(HTTPConfig{Endpoint: srv.URL + "/v4/latest/", RequestsPerSecond: 100})
			rates, err := src.Fetch(context.Background(), "USD")

			assert.Equal(t, "/v4/latest/USD", gotPath)
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyFailure:
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRates, rates)
			}
		})
	}
}

func TestHTTPSource_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPConfig{Endpoint: srv.URL, RetryAttempts: 2, RequestsPerSecond: 100})
	rates, err := src.Fetch(context.Background(), "USD")

	require.NoError(t, err)
	assert.InDelta(t, 0.9, rates["EUR"], 1e-12)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPSource_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"rates":{"GBP":0.8}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPConfig{
		Endpoint:          srv.URL,
		RetryAttempts:     2,
		RetryMaxDelay:     20 * time.Millisecond,
		RequestsPerSecond: 100,
	})

	start := time.Now()
	rates, err := src.Fetch(context.Background(), "USD")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, rates["GBP"], 1e-12)
	assert.Equal(t, int32(2), calls.Load())
	assert.Less(t, time.Since(start), 5*time.Second, "Retry-After is capped by the max delay")
}

func TestHTTPSource_RateLimitWithoutRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPConfig{Endpoint: srv.URL, RequestsPerSecond: 100})
	_, err := src.Fetch(context.Background(), "USD")
	assert.ErrorIs(t, err, common.ErrRateLimit)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, 3*time.Second, parseRetryAfter(" 3 "))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("-1"))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestHTTPSource_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPConfig{Endpoint: srv.URL, RetryAttempts: 3, RequestsPerSecond: 100})
	_, err := src.Fetch(context.Background(), "USD")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPSource_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(HTTPConfig{Endpoint: srv.URL, Timeout: 20 * time.Millisecond, RequestsPerSecond: 100})
	_, err := src.Fetch(context.Background(), "USD")
	require.Error(t, err)
}

func TestProvider_WithHTTPSourceOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProvider(NewHTTPSource(HTTPConfig{Endpoint: srv.URL, RequestsPerSecond: 100}))
	res := p.GetRates(context.Background(), "USD")

	require.False(t, res.OK())
	assert.InDelta(t, 0.85, res.Value["EUR"].Rate, 1e-12)
}
