package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/google/uuid"
)

// SaveProfile inserts a profile or replaces the one with the same name.
// On return profile.ID and the timestamps reflect the stored row.
func (s *SQLiteStorage) SaveProfile(ctx context.Context, profile *model.BusinessProfile) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProfile(profile); err != nil {
		return err
	}

	countries := profile.SourceCountries
	if countries == nil {
		countries = []string{}
	}
	countriesJSON, err := json.Marshal(countries)
	if err != nil {
		return fmt.Errorf("failed to marshal source countries: %w", err)
	}

	products := profile.Products
	if products == nil {
		products = []model.CalculationInput{}
	}
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}

	now := time.Now().UTC()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	profile.Name = strings.TrimSpace(profile.Name)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (
			id, name, business_type, source_countries, monthly_import_volume,
			products_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			business_type = excluded.business_type,
			source_countries = excluded.source_countries,
			monthly_import_volume = excluded.monthly_import_volume,
			products_json = excluded.products_json,
			updated_at = excluded.updated_at`,
		profile.ID,
		profile.Name,
		profile.BusinessType,
		string(countriesJSON),
		profile.MonthlyImportVolume,
		string(productsJSON),
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	// An update keeps the original id and creation time.
	err = s.db.QueryRowContext(ctx, `SELECT id, created_at FROM profiles WHERE name = ?`, profile.Name).
		Scan(&profile.ID, &profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to reload profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by name.
func (s *SQLiteStorage) GetProfile(ctx context.Context, name string) (*model.BusinessProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, business_type, source_countries, monthly_import_volume,
		       products_json, created_at, updated_at
		FROM profiles
		WHERE name = ?`, strings.TrimSpace(name))

	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// ListProfiles returns all profiles ordered by name.
func (s *SQLiteStorage) ListProfiles(ctx context.Context) ([]model.BusinessProfile, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, business_type, source_countries, monthly_import_volume,
		       products_json, created_at, updated_at
		FROM profiles
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	profiles := []model.BusinessProfile{}
	for rows.Next() {
		profile, scanErr := scanProfile(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		profiles = append(profiles, *profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

// DeleteProfile removes a profile by name.
func (s *SQLiteStorage) DeleteProfile(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %q: %w", name, common.ErrNotFound)
	}
	return nil
}

func scanProfile(row scanner) (*model.BusinessProfile, error) {
	var p model.BusinessProfile
	var countriesJSON, productsJSON string

	err := row.Scan(&p.ID, &p.Name, &p.BusinessType, &countriesJSON, &p.MonthlyImportVolume,
		&productsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	if err := json.Unmarshal([]byte(countriesJSON), &p.SourceCountries); err != nil {
		return nil, fmt.Errorf("failed to decode source countries for %q: %w", p.Name, err)
	}
	if err := json.Unmarshal([]byte(productsJSON), &p.Products); err != nil {
		return nil, fmt.Errorf("failed to decode products for %q: %w", p.Name, err)
	}
	return &p, nil
}
