package tariff

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/Veraticus/tariff-impact/internal/cache"
	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/rates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRandom struct {
	float float64
	index int
}

func (f fixedRandom) Float64() float64 { return f.float }
func (f fixedRandom) IntN(n int) int   { return f.index % n }

// countingCatalog wraps a catalog and counts lookups.
type countingCatalog struct {
	Catalog
	err     error
	lookups int
}

func (c *countingCatalog) Lookup(ctx context.Context, code model.ClassificationCode) (model.ClassificationRecord, error) {
	c.lookups++
	if c.err != nil {
		return model.ClassificationRecord{}, c.err
	}
	return c.Catalog.Lookup(ctx, code)
}

func (c *countingCatalog) Summaries(ctx context.Context) ([]model.ClassificationSummary, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.Catalog.Summaries(ctx)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestProvider(catalog Catalog, clock *testClock, opts ...Option) *Provider {
	c := cache.New[model.ClassificationRecord](cache.NewMemoryStore[model.ClassificationRecord](), DefaultTTL, cache.WithClock(clock.Now))
	return NewProvider(catalog, append([]Option{WithCache(c)}, opts...)...)
}

func TestProvider_GetClassificationData_Static(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	catalog := &countingCatalog{Catalog: rates.NewStaticCatalog()}
	p := newTestProvider(catalog, clock)

	res := p.GetClassificationData(ctx, "HTS 8471.30.01")
	require.True(t, res.OK())
	assert.Equal(t, model.ClassificationCode("8471.30.01"), res.Value.Code)
	assert.Equal(t, model.DataSourceStatic, res.Value.DataSource)
	assert.Equal(t, 1, catalog.lookups)

	// Warm cache
	res = p.GetClassificationData(ctx, "8471.30.01")
	require.True(t, res.OK())
	assert.Equal(t, 1, catalog.lookups)

	// Expire
	clock.now = clock.now.Add(DefaultTTL)
	res = p.GetClassificationData(ctx, "8471.30.01")
	require.True(t, res.OK())
	assert.Equal(t, 2, catalog.lookups)
}

func TestProvider_GetClassificationData_Synthesized(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}

	tests := []struct {
		name     string
		random   fixedRandom
		wantRate float64
		wantCat  string
	}{
		{name: "lowest", random: fixedRandom{float: 0, index: 0}, wantRate: 5, wantCat: "Electronics"},
		{name: "middle", random: fixedRandom{float: 0.5, index: 2}, wantRate: 17.5, wantCat: "Textiles"},
		{name: "just below upper bound", random: fixedRandom{float: 0.99999999, index: 7}, wantRate: 29.99, wantCat: "Medical Devices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(rates.NewStaticCatalog(), clock, WithRandom(tt.random))

			res := p.GetClassificationData(ctx, "9999.99.99")
			require.True(t, res.OK())

			record := res.Value
			assert.True(t, record.IsGenerated())
			assert.Equal(t, tt.wantCat, record.Category)
			require.Len(t, record.Countries, 1)

			general, ok := record.Countries[DefaultCountry].GeneralRate()
			require.True(t, ok)
			assert.InDelta(t, tt.wantRate, general.Rate, 1e-9)
			assert.GreaterOrEqual(t, general.Rate, 5.0)
			assert.Less(t, general.Rate, 30.0)
		})
	}
}

func TestProvider_SynthesizedRateRange(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(rates.NewStaticCatalog(), WithRandom(rand.New(rand.NewPCG(42, 7))))

	for i := 0; i < 200; i++ {
		record := p.synthesize(model.ClassificationCode("0000.00.00"))
		general, ok := record.Countries[DefaultCountry].GeneralRate()
		require.True(t, ok)
		assert.GreaterOrEqual(t, general.Rate, 5.0)
		assert.Less(t, general.Rate, 30.0)
	}

	res := p.GetClassificationData(ctx, "0000.00.01")
	require.True(t, res.OK())
	assert.True(t, res.Value.IsGenerated())
}

func TestProvider_SynthesizedIsCached(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	catalog := &countingCatalog{Catalog: rates.NewStaticCatalog()}
	p := newTestProvider(catalog, clock, WithRandom(rand.New(rand.NewPCG(1, 2))))

	first := p.GetClassificationData(ctx, "1111.11.11")
	second := p.GetClassificationData(ctx, "1111.11.11")

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, 1, catalog.lookups)
}

func TestProvider_DefaultCountryOption(t *testing.T) {
	p := NewProvider(rates.NewStaticCatalog(), WithDefaultCountry("mx"), WithRandom(fixedRandom{}))

	res := p.GetClassificationData(context.Background(), "5555")
	require.True(t, res.OK())
	entry, ok := res.Value.Countries["MX"]
	require.True(t, ok)
	assert.Equal(t, "Mexico", entry.CountryName)
}

func TestProvider_CatalogFailure(t *testing.T) {
	ctx := context.Background()
	catalog := &countingCatalog{Catalog: rates.NewStaticCatalog(), err: errors.New("disk on fire")}
	p := NewProvider(catalog, WithRandom(fixedRandom{float: 0.2}))

	res := p.GetClassificationData(ctx, "8471.30.01")
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, common.ErrCatalog)
	assert.True(t, res.Value.IsGenerated())
	_, ok := res.Value.Countries[DefaultCountry].GeneralRate()
	assert.True(t, ok)

	// Failures are not cached
	p.GetClassificationData(ctx, "8471.30.01")
	assert.Equal(t, 2, catalog.lookups)
}

type panickingCatalog struct{ Catalog }

func (panickingCatalog) Lookup(context.Context, model.ClassificationCode) (model.ClassificationRecord, error) {
	panic("unexpected")
}

func TestProvider_RecoversPanics(t *testing.T) {
	p := NewProvider(panickingCatalog{Catalog: rates.NewStaticCatalog()}, WithRandom(fixedRandom{}))

	res := p.GetClassificationData(context.Background(), "8471.30.01")
	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, common.ErrUnexpectedPanic)
	assert.True(t, res.Value.IsGenerated())
}

func TestProvider_Search(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(rates.NewStaticCatalog())

	tests := []struct {
		name  string
		query string
		want  []model.ClassificationCode
	}{
		{name: "by code prefix", query: "8471", want: []model.ClassificationCode{"8471.30.01"}},
		{name: "by description, case-insensitive", query: "LAPTOP", want: []model.ClassificationCode{"8471.30.01"}},
		{name: "by category", query: "electronics", want: []model.ClassificationCode{"8471.30.01", "8517.13.00"}},
		{name: "no match", query: "spaceship", want: []model.ClassificationCode{}},
		{name: "empty query", query: "   ", want: []model.ClassificationCode{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Search(ctx, tt.query)
			require.NotNil(t, got)
			codes := make([]model.ClassificationCode, 0, len(got))
			for _, s := range got {
				codes = append(codes, s.Code)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}

func TestProvider_SearchCatalogError(t *testing.T) {
	p := NewProvider(&countingCatalog{Catalog: rates.NewStaticCatalog(), err: errors.New("offline")})

	got := p.Search(context.Background(), "steel")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
