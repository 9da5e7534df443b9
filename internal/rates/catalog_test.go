package rates

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCatalog_Lookup(t *testing.T) {
	ctx := context.Background()
	catalog := NewStaticCatalog()

	tests := []struct {
		name    string
		code    model.ClassificationCode
		country string
		rate    float64
		agree   string
	}{
		{name: "laptops from China", code: "8471.30.01", country: "CN", rate: 25},
		{name: "laptops from Mexico", code: "8471.30.01", country: "MX", rate: 0, agree: "USMCA"},
		{name: "t-shirts from Bangladesh", code: "6109.10.00", country: "BD", rate: 16.5},
		{name: "solar from China", code: "8541.43.00", country: "CN", rate: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := catalog.Lookup(ctx, tt.code)
			require.NoError(t, err)
			assert.Equal(t, model.DataSourceStatic, record.DataSource)
			assert.False(t, record.IsGenerated())

			entry, ok := record.Countries[tt.country]
			require.True(t, ok)
			general, ok := entry.GeneralRate()
			require.True(t, ok)
			assert.InDelta(t, tt.rate, general.Rate, 1e-9)
			assert.Equal(t, tt.agree, general.TradeAgreement)
		})
	}
}

func TestStaticCatalog_EveryCountryHasGeneralRate(t *testing.T) {
	ctx := context.Background()
	catalog := NewStaticCatalog()

	summaries, err := catalog.Summaries(ctx)
	require.NoError(t, err)
	require.Equal(t, catalog.Len(), len(summaries))

	for _, s := range summaries {
		record, err := catalog.Lookup(ctx, s.Code)
		require.NoError(t, err)
		require.NotEmpty(t, record.Countries, s.Code)
		for code, entry := range record.Countries {
			_, ok := entry.GeneralRate()
			assert.True(t, ok, "%s/%s has no general rate", s.Code, code)
			assert.Equal(t, code, entry.CountryCode)
		}
	}
}

func TestStaticCatalog_NotFound(t *testing.T) {
	_, err := NewStaticCatalog().Lookup(context.Background(), "9999.99.99")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestStaticCatalog_LookupReturnsCopy(t *testing.T) {
	ctx := context.Background()
	catalog := NewStaticCatalog()

	first, err := catalog.Lookup(ctx, "8471.30.01")
	require.NoError(t, err)
	first.Countries["CN"].Rates[model.RateKindGeneral] = model.Rate{Rate: 99}
	delete(first.Countries, "MX")

	second, err := catalog.Lookup(ctx, "8471.30.01")
	require.NoError(t, err)
	assert.InDelta(t, 25, second.Countries["CN"].Rates[model.RateKindGeneral].Rate, 1e-9)
	assert.Contains(t, second.Countries, "MX")
}

func TestNewCatalog_NormalizesCodes(t *testing.T) {
	updated := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	catalog := NewCatalog([]model.ClassificationRecord{
		{Code: " 1234.56-78 ", Description: "Widgets", Category: "Test"},
	}, updated)

	record, err := catalog.Lookup(context.Background(), "1234.5678")
	require.NoError(t, err)
	assert.Equal(t, model.DataSourceStatic, record.DataSource)
	assert.Equal(t, updated, record.LastUpdated)
}
