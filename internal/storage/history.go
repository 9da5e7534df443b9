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
	"github.com/Veraticus/tariff-impact/internal/service"
	"github.com/google/uuid"
)

// DefaultHistoryLimit caps list queries that do not set their own limit.
const DefaultHistoryLimit = 50

var _ service.Storage = (*SQLiteStorage)(nil)

// SaveCalculation persists a calculation result. Degraded results are stored with success=false.
func (s *SQLiteStorage) SaveCalculation(ctx context.Context, result model.CalculationResult, success bool) (*model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateResult(result); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calculation: %w", err)
	}

	entry := &model.HistoryEntry{
		ID:        uuid.NewString(),
		Result:    result,
		Success:   success,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calculations (
			id, classification_code, origin_country, currency, import_value,
			tariff_rate, tariff_amount, total_landed_cost, confidence, success,
			result_json, calculated_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(model.NormalizeCode(result.Input.ClassificationCode)),
		strings.ToUpper(result.Input.OriginCountry),
		strings.ToUpper(result.Input.Currency),
		result.Input.ImportValue,
		result.TariffRate,
		result.TariffAmount,
		result.TotalLandedCost,
		string(result.Confidence),
		success,
		string(payload),
		result.CalculatedAt.UTC(),
		entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save calculation: %w", err)
	}

	return entry, nil
}

// GetCalculation retrieves a stored calculation by ID.
func (s *SQLiteStorage) GetCalculation(ctx context.Context, id string) (*model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, success, result_json, created_at
		FROM calculations
		WHERE id = ?`, id)

	entry, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calculation %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListCalculations returns stored calculations, newest first.
func (s *SQLiteStorage) ListCalculations(ctx context.Context, filter service.HistoryFilter) ([]model.HistoryEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, success, result_json, created_at FROM calculations`
	var conditions []string
	var args []any

	if filter.Code != "" {
		conditions = append(conditions, "classification_code = ?")
		args = append(args, string(model.NormalizeCode(filter.Code)))
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	return queryHistory(ctx, s.db, query, args...)
}

// ClearCalculations deletes all stored calculations and reports how many were removed.
func (s *SQLiteStorage) ClearCalculations(ctx context.Context) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear calculations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared calculations: %w", err)
	}
	return n, nil
}

func queryHistory(ctx context.Context, q queryable, query string, args ...any) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		entry, scanErr := scanHistoryEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calculations: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row scanner) (*model.HistoryEntry, error) {
	var entry model.HistoryEntry
	var payload string

	if err := row.Scan(&entry.ID, &entry.Success, &payload, &entry.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan calculation: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &entry.Result); err != nil {
		return nil, fmt.Errorf("failed to decode calculation %s: %w", entry.ID, err)
	}
	return &entry, nil
}
