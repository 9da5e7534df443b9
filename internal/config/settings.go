package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Settings gathers the typed configuration values used to wire the application.
type Settings struct {
	LogLevel          string
	LogFormat         string
	ExchangeEndpoint  string
	CacheBackend      string
	RedisAddr         string
	DatabasePath      string
	ServerAddress     string
	DefaultCountry    string
	ExchangeTimeout   time.Duration
	ExchangeTTL       time.Duration
	ClassificationTTL time.Duration
	RequestsPerSecond float64
	RetryAttempts     int
	RetryMaxDelay     time.Duration
	RetryJitter       float64
}

// SetDefaults registers default values for every key read by Load.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("exchange.endpoint", "https://api.exchangerate-api.com/v4/latest")
	v.SetDefault("exchange.timeout", 10*time.Second)
	v.SetDefault("exchange.requests_per_second", 2.0)
	v.SetDefault("exchange.retry_attempts", 1)
	v.SetDefault("exchange.retry_max_delay", 5*time.Second)
	v.SetDefault("exchange.retry_jitter", 0.2)
	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.exchange_ttl", time.Hour)
	v.SetDefault("cache.classification_ttl", 24*time.Hour)
	v.SetDefault("database.path", "~/.local/share/tariff/tariff.db")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("tariff.default_country", "CN")
}

// Load reads Settings from v and validates them.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		LogLevel:          v.GetString("logging.level"),
		LogFormat:         v.GetString("logging.format"),
		ExchangeEndpoint:  v.GetString("exchange.endpoint"),
		ExchangeTimeout:   v.GetDuration("exchange.timeout"),
		RequestsPerSecond: v.GetFloat64("exchange.requests_per_second"),
		RetryAttempts:     v.GetInt("exchange.retry_attempts"),
		RetryMaxDelay:     v.GetDuration("exchange.retry_max_delay"),
		RetryJitter:       v.GetFloat64("exchange.retry_jitter"),
		CacheBackend:      strings.ToLower(strings.TrimSpace(v.GetString("cache.backend"))),
		RedisAddr:         v.GetString("cache.redis_addr"),
		ExchangeTTL:       v.GetDuration("cache.exchange_ttl"),
		ClassificationTTL: v.GetDuration("cache.classification_ttl"),
		DatabasePath:      ExpandPath(v.GetString("database.path")),
		ServerAddress:     v.GetString("server.address"),
		DefaultCountry:    strings.ToUpper(strings.TrimSpace(v.GetString("tariff.default_country"))),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the settings are usable.
func (s *Settings) Validate() error {
	switch s.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if s.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis_addr is required for the redis backend", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache.backend %q", common.ErrInvalidConfig, s.CacheBackend)
	}

	if s.ExchangeTTL <= 0 || s.ClassificationTTL <= 0 {
		return fmt.Errorf("%w: cache TTLs must be positive", common.ErrInvalidConfig)
	}
	if s.ExchangeTimeout <= 0 {
		return fmt.Errorf("%w: exchange.timeout must be positive", common.ErrInvalidConfig)
	}
	if s.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: exchange.requests_per_second must be positive", common.ErrInvalidConfig)
	}
	if s.RetryAttempts < 1 {
		return fmt.Errorf("%w: exchange.retry_attempts must be at least 1", common.ErrInvalidConfig)
	}
	if s.RetryMaxDelay <= 0 {
		return fmt.Errorf("%w: exchange.retry_max_delay must be positive", common.ErrInvalidConfig)
	}
	if s.RetryJitter < 0 || s.RetryJitter > 1 {
		return fmt.Errorf("%w: exchange.retry_jitter must be between 0 and 1", common.ErrInvalidConfig)
	}
	if s.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if len(s.DefaultCountry) != 2 {
		return fmt.Errorf("%w: tariff.default_country must be a two-letter code", common.ErrInvalidConfig)
	}
	return nil
}
