// Package tariff resolves classification codes to country-specific tariff rates.
package tariff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/tariff-impact/internal/cache"
	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

// DefaultTTL is how long a classification record stays fresh in the cache.
const DefaultTTL = 24 * time.Hour

// DefaultCountry is the origin country given to synthesized records.
const DefaultCountry = "CN"

// Synthesized general rates fall in [minSyntheticRate, maxSyntheticRate).
const (
	minSyntheticRate = 5.0
	maxSyntheticRate = 30.0
)

var syntheticCategories = []string{
	"Electronics",
	"Machinery",
	"Textiles",
	"Chemicals",
	"Consumer Goods",
	"Agriculture",
	"Automotive",
	"Medical Devices",
}

var countryNames = map[string]string{
	"CN": "China",
	"MX": "Mexico",
	"CA": "Canada",
	"VN": "Vietnam",
	"IN": "India",
	"DE": "Germany",
	"JP": "Japan",
	"KR": "South Korea",
}

// Catalog is the reference data the provider consults before synthesizing.
type Catalog interface {
	Lookup(ctx context.Context, code model.ClassificationCode) (model.ClassificationRecord, error)
	Summaries(ctx context.Context) ([]model.ClassificationSummary, error)
}

// Random is the source used to synthesize records. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// Provider looks up classification records with a 24 hour cache and synthesizes
// low-confidence records for codes the catalog does not know.
type Provider struct {
	catalog        Catalog
	cache          *cache.TTLCache[model.ClassificationRecord]
	random         Random
	defaultCountry string
	randMu         sync.Mutex
}

// Option configures a Provider.
type Option func(*Provider)

// WithCache replaces the default in-memory cache.
func WithCache(c *cache.TTLCache[model.ClassificationRecord]) Option {
	return func(p *Provider) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithRandom replaces the random source used for synthesized records.
func WithRandom(r Random) Option {
	return func(p *Provider) {
		if r != nil {
			p.random = r
		}
	}
}

// WithDefaultCountry sets the origin country of synthesized records.
func WithDefaultCountry(code string) Option {
	return func(p *Provider) {
		if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
			p.defaultCountry = code
		}
	}
}

// NewProvider creates a provider over catalog.
func NewProvider(catalog Catalog, opts ...Option) *Provider {
	p := &Provider{
		catalog:        catalog,
		defaultCountry: DefaultCountry,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.cache == nil {
		p.cache = cache.New[model.ClassificationRecord](cache.NewMemoryStore[model.ClassificationRecord](), DefaultTTL)
	}
	if p.random == nil {
		seed := uint64(time.Now().UnixNano())
		p.random = rand.New(rand.NewPCG(seed, seed>>1))
	}

	return p
}

// GetClassificationData returns the record for code. Unknown codes succeed with a
// synthesized record; catalog failures return a synthesized record as a failure.
func (p *Provider) GetClassificationData(ctx context.Context, raw string) (res service.Result[model.ClassificationRecord]) {
	code := model.NormalizeCode(raw)

	defer func() {
		if r := recover(); r != nil {
			err := common.RecoveredError(r)
			common.LogError(err, "Classification lookup panicked", common.Fields{"code": code})
			res = service.Failure(p.synthesize(code), err)
		}
	}()

	if record, storedAt, ok := p.cache.Get(ctx, string(code)); ok {
		common.LogDebug("Classification cache hit", common.Fields{
			"code":       code,
			"expires_in": storedAt.Add(p.cache.TTL()).Sub(p.cache.Now()),
		})
		return service.Success(record)
	}

	record, err := p.catalog.Lookup(ctx, code)
	switch {
	case err == nil:
		p.store(ctx, record)
		return service.Success(record)

	case errors.Is(err, common.ErrNotFound):
		record = p.synthesize(code)
		common.LogInfo("Generated classification data for unknown code", common.Fields{
			"code":     code,
			"category": record.Category,
			"country":  p.defaultCountry,
		})
		p.store(ctx, record)
		return service.Success(record)

	default:
		common.LogError(err, "Tariff catalog lookup failed", common.Fields{"code": code})
		return service.Failure(p.synthesize(code), fmt.Errorf("%w: %w", common.ErrCatalog, err))
	}
}

// Search returns catalog entries whose code, description, or category contains query,
// case-insensitively, ordered by code.
func (p *Provider) Search(ctx context.Context, query string) []model.ClassificationSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	matches := []model.ClassificationSummary{}
	if q == "" {
		return matches
	}

	summaries, err := p.catalog.Summaries(ctx)
	if err != nil {
		common.LogError(err, "Tariff catalog search failed", common.Fields{"query": query})
		return matches
	}

	for _, s := range summaries {
		if strings.Contains(strings.ToLower(string(s.Code)), q) ||
			strings.Contains(strings.ToLower(s.Description), q) ||
			strings.Contains(strings.ToLower(s.Category), q) {
			matches = append(matches, s)
		}
	}
	return matches
}

func (p *Provider) store(ctx context.Context, record model.ClassificationRecord) {
	if err := p.cache.Set(ctx, string(record.Code), record); err != nil {
		slog.Warn("Failed to cache classification record", "code", record.Code, "error", err)
	}
}

func (p *Provider) synthesize(code model.ClassificationCode) model.ClassificationRecord {
	p.randMu.Lock()
	category := syntheticCategories[p.random.IntN(len(syntheticCategories))]
	raw := minSyntheticRate + p.random.Float64()*(maxSyntheticRate-minSyntheticRate)
	p.randMu.Unlock()

	// Truncate to cents of a percent; rounding up could reach the exclusive upper bound.
	rate := math.Floor(raw*100) / 100

	name, ok := countryNames[p.defaultCountry]
	if !ok {
		name = p.defaultCountry
	}

	now := p.cache.Now()
	return model.ClassificationRecord{
		Code:        code,
		Description: fmt.Sprintf("Unclassified product %s", code),
		Category:    category,
		Unit:        "No.",
		Countries: map[string]model.CountryRateEntry{
			p.defaultCountry: {
				CountryCode: p.defaultCountry,
				CountryName: name,
				Rates: map[model.RateKind]model.Rate{
					model.RateKindGeneral: {
						Rate:          rate,
						Type:          model.RateTypeMFN,
						EffectiveDate: now,
						Notes:         "Estimated rate; verify against the official schedule",
					},
				},
			},
		},
		LastUpdated: now,
		DataSource:  model.DataSourceGenerated,
	}
}
