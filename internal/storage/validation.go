package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tariff-impact/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidProfile = errors.New("invalid profile")
	ErrInvalidResult  = errors.New("invalid calculation result")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateResult(result model.CalculationResult) error {
	if strings.TrimSpace(result.Input.ClassificationCode) == "" {
		return fmt.Errorf("%w: missing classification code", ErrInvalidResult)
	}
	if result.CalculatedAt.IsZero() {
		return fmt.Errorf("%w: missing calculation timestamp", ErrInvalidResult)
	}
	switch result.Confidence {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
	default:
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidResult, result.Confidence)
	}
	return nil
}

func validateProfile(profile *model.BusinessProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	if profile.MonthlyImportVolume < 0 {
		return fmt.Errorf("%w: monthly import volume cannot be negative", ErrInvalidProfile)
	}
	for i, p := range profile.Products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: product %d: %w", ErrInvalidProfile, i, err)
		}
	}
	return nil
}
