package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProfile(name string) *model.BusinessProfile {
	return &model.BusinessProfile{
		Name:                name,
		BusinessType:        "electronics retailer",
		SourceCountries:     []string{"CN", "VN"},
		MonthlyImportVolume: 50000,
		Products: []model.CalculationInput{
			{ClassificationCode: "8471.30.01", ProductName: "Laptops", OriginCountry: "CN", ImportValue: 10000, Currency: "USD"},
			{ClassificationCode: "8517.13.00", ProductName: "Phones", OriginCountry: "VN", ImportValue: 5000, Currency: "EUR", ShippingCost: 120},
		},
	}
}

func TestSaveAndGetProfile(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	profile := sampleProfile("acme")
	require.NoError(t, store.SaveProfile(ctx, profile))
	assert.NotEmpty(t, profile.ID)
	assert.False(t, profile.CreatedAt.IsZero())

	got, err := store.GetProfile(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, "electronics retailer", got.BusinessType)
	assert.Equal(t, []string{"CN", "VN"}, got.SourceCountries)
	assert.InDelta(t, 50000.0, got.MonthlyImportVolume, 0.001)
	require.Len(t, got.Products, 2)
	assert.Equal(t, "Phones", got.Products[1].ProductName)
	assert.InDelta(t, 120.0, got.Products[1].ShippingCost, 0.001)
}

func TestSaveProfile_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	original := sampleProfile("acme")
	require.NoError(t, store.SaveProfile(ctx, original))

	replacement := sampleProfile("acme")
	replacement.BusinessType = "wholesale"
	replacement.Products = replacement.Products[:1]
	require.NoError(t, store.SaveProfile(ctx, replacement))

	assert.Equal(t, original.ID, replacement.ID)

	got, err := store.GetProfile(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "wholesale", got.BusinessType)
	assert.Len(t, got.Products, 1)

	all, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveProfile_Validation(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	err := store.SaveProfile(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	err = store.SaveProfile(ctx, &model.BusinessProfile{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidProfile)

	bad := sampleProfile("bad")
	bad.Products[0].ImportValue = 0
	err = store.SaveProfile(ctx, bad)
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSaveProfile_EmptyCollections(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.SaveProfile(ctx, &model.BusinessProfile{Name: "empty"}))

	got, err := store.GetProfile(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, got.Products)
	assert.Empty(t, got.SourceCountries)
}

func TestListProfiles_OrderedByName(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, store.SaveProfile(ctx, sampleProfile(name)))
	}

	profiles, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "alpha", profiles[0].Name)
	assert.Equal(t, "mid", profiles[1].Name)
	assert.Equal(t, "zeta", profiles[2].Name)
}

func TestDeleteProfile(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.SaveProfile(ctx, sampleProfile("acme")))
	require.NoError(t, store.DeleteProfile(ctx, "acme"))

	_, err := store.GetProfile(ctx, "acme")
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = store.DeleteProfile(ctx, "acme")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
