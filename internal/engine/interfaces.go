package engine

import (
	"context"

	"github.com/Veraticus/tariff-impact/internal/exchange"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

// TariffLookup resolves a classification code to its rate record.
type TariffLookup interface {
	GetClassificationData(ctx context.Context, code string) service.Result[model.ClassificationRecord]
}

// CurrencyConverter converts amounts between currencies.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) service.Result[exchange.Conversion]
}
