// Package testutil provides test databases and fixture builders shared across package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/storage"
)

// TestDB is a migrated in-memory database that is closed when the test ends.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	Profiles []*model.BusinessProfile
	t        *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup  func(context.Context, *storage.SQLiteStorage) error
	Profiles     []*model.BusinessProfile
	Calculations []model.CalculationResult
}

// SetupTestDB creates a migrated in-memory database seeded with profiles.
func SetupTestDB(t *testing.T, profiles ...*model.BusinessProfile) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Profiles: profiles})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, p := range opts.Profiles {
		if err := store.SaveProfile(ctx, p); err != nil {
			t.Fatalf("failed to seed profile %q: %v", p.Name, err)
		}
	}

	for _, c := range opts.Calculations {
		if _, err := store.SaveCalculation(ctx, c, true); err != nil {
			t.Fatalf("failed to seed calculation %s: %v", c.Input.ClassificationCode, err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage:  store,
		Profiles: opts.Profiles,
		t:        t,
	}
}

// MustGetProfile returns the stored profile with the given name or fails the test.
func (db *TestDB) MustGetProfile(name string) *model.BusinessProfile {
	db.t.Helper()

	p, err := db.Storage.GetProfile(context.Background(), name)
	if err != nil {
		db.t.Fatalf("profile %q: %v", name, err)
	}
	return p
}
