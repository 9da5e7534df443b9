package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/Veraticus/tariff-impact/internal/cache"
	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/config"
	"github.com/Veraticus/tariff-impact/internal/engine"
	"github.com/Veraticus/tariff-impact/internal/exchange"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/rates"
	"github.com/Veraticus/tariff-impact/internal/storage"
	"github.com/Veraticus/tariff-impact/internal/tariff"
)

const redisPingTimeout = 2 * time.Second

// app holds the wired providers shared by commands.
type app struct {
	settings   *config.Settings
	tariffs    *tariff.Provider
	exchange   *exchange.Provider
	calculator *engine.Calculator
	redis      *redis.Client
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Invalid configuration", err)
	}
	return settings, nil
}

// newApp builds the providers and calculator from configuration.
func newApp(ctx context.Context) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings}

	classificationStore, exchangeStore := a.cacheStores(ctx)

	a.tariffs = tariff.NewProvider(rates.NewStaticCatalog(),
		tariff.WithCache(cache.New(classificationStore, settings.ClassificationTTL)),
		tariff.WithDefaultCountry(settings.DefaultCountry),
	)

	source := exchange.NewHTTPSource(exchange.HTTPConfig{
		Endpoint:          settings.ExchangeEndpoint,
		Timeout:           settings.ExchangeTimeout,
		RequestsPerSecond: settings.RequestsPerSecond,
		RetryAttempts:     settings.RetryAttempts,
		RetryMaxDelay:     settings.RetryMaxDelay,
		RetryJitter:       settings.RetryJitter,
	})
	a.exchange = exchange.NewProvider(source,
		exchange.WithCache(cache.New(exchangeStore, settings.ExchangeTTL)),
	)

	a.calculator = engine.New(a.tariffs, a.exchange)
	return a, nil
}

// cacheStores picks the configured backend. An unreachable Redis degrades to in-memory caches.
func (a *app) cacheStores(ctx context.Context) (cache.Store[model.ClassificationRecord], cache.Store[model.ExchangeRates]) {
	if a.settings.CacheBackend == config.CacheBackendRedis {
		client := cache.NewRedisClient(a.settings.RedisAddr)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			a.redis = client
			return cache.NewRedisStore[model.ClassificationRecord](client, "tariff:classification", a.settings.ClassificationTTL),
				cache.NewRedisStore[model.ExchangeRates](client, "tariff:exchange", a.settings.ExchangeTTL)
		}

		_ = client.Close()
		common.LogWarn("Redis unavailable, using in-memory cache", common.Fields{
			"address": a.settings.RedisAddr,
			"error":   err.Error(),
		})
	}

	return cache.NewMemoryStore[model.ClassificationRecord](), cache.NewMemoryStore[model.ExchangeRates]()
}

// Close releases the Redis client, if any.
func (a *app) Close() error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

// initStorage opens the database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// recordCalculation stores a result in history. Failures are logged, not returned.
func recordCalculation(ctx context.Context, result model.CalculationResult, success bool) {
	store, err := initStorage(ctx)
	if err != nil {
		common.LogWarn("History unavailable", common.Fields{"error": err.Error()})
		return
	}
	defer func() { _ = store.Close() }()

	entry, err := store.SaveCalculation(ctx, result, success)
	if err != nil {
		common.LogWarn("Failed to record calculation", common.Fields{"error": err.Error()})
		return
	}
	slog.Debug("Recorded calculation", "id", entry.ID)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
