// Package service defines the interfaces and shared types used across application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/tariff-impact/internal/model"
)

// HistoryFilter defines filtering options for calculation history queries.
type HistoryFilter struct {
	Since *time.Time
	Code  string
	Limit int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// History operations
	SaveCalculation(ctx context.Context, result model.CalculationResult, success bool) (*model.HistoryEntry, error)
	GetCalculation(ctx context.Context, id string) (*model.HistoryEntry, error)
	ListCalculations(ctx context.Context, filter HistoryFilter) ([]model.HistoryEntry, error)
	ClearCalculations(ctx context.Context) (int64, error)

	// Profile operations
	SaveProfile(ctx context.Context, profile *model.BusinessProfile) error
	GetProfile(ctx context.Context, name string) (*model.BusinessProfile, error)
	ListProfiles(ctx context.Context) ([]model.BusinessProfile, error)
	DeleteProfile(ctx context.Context, name string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations. Jitter is the
// fraction (0 to 1) by which each backoff delay is randomly spread.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}
