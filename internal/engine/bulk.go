package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

// DefaultScenarioName names bulk runs started without one.
const DefaultScenarioName = "Bulk analysis"

// ProgressFunc is called after each product is processed.
type ProgressFunc func(done, total int)

// BulkOptions configures a bulk run.
type BulkOptions struct {
	Progress     ProgressFunc
	ScenarioName string
}

// CalculateBulk runs Calculate over inputs one at a time, in order. Only successful
// calculations appear in Products and feed the aggregates; failed ones are counted in
// Excluded. Cancellation or an unexpected failure yields a zeroed result and an error.
func (c *Calculator) CalculateBulk(ctx context.Context, inputs []model.CalculationInput, opts BulkOptions) (res service.Result[model.BulkAnalysisResult]) {
	name := opts.ScenarioName
	if name == "" {
		name = DefaultScenarioName
	}

	defer func() {
		if r := recover(); r != nil {
			err := common.RecoveredError(r)
			common.LogError(err, "Bulk analysis panicked", common.Fields{"scenario": name})
			res = service.Failure(emptyBulkResult(name), err)
		}
	}()

	slog.Info("Starting bulk analysis", "scenario", name, "products", len(inputs))

	out := emptyBulkResult(name)
	var maxTariffAmount float64

	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return service.Failure(emptyBulkResult(name), fmt.Errorf("bulk analysis interrupted after %d of %d products: %w", i, len(inputs), err))
		}

		calc := c.Calculate(ctx, input)
		if opts.Progress != nil {
			opts.Progress(i+1, len(inputs))
		}

		if !calc.OK() {
			out.Excluded++
			slog.Warn("Excluding failed calculation from bulk analysis",
				"index", i,
				"code", input.ClassificationCode,
				"error", calc.Err)
			continue
		}

		result := calc.Value
		out.Products = append(out.Products, result)
		out.Summary.TotalImportValue += result.Input.ImportValue
		out.Summary.TotalTariffCost += result.TariffAmount

		if result.TariffRate > out.Summary.HighestTariffRate {
			out.Summary.HighestTariffRate = result.TariffRate
		}
		if result.TariffAmount > maxTariffAmount {
			maxTariffAmount = result.TariffAmount
			out.Summary.MostImpactedProduct = fmt.Sprintf("%s (%.2f)", result.Input.ClassificationCode, result.TariffAmount)
		}
	}

	if out.Summary.TotalImportValue > 0 {
		out.Summary.AverageEffectiveRate = out.Summary.TotalTariffCost / out.Summary.TotalImportValue * 100
	}
	out.TotalTariffImpact = out.Summary.TotalTariffCost

	slog.Info("Bulk analysis complete",
		"scenario", name,
		"included", len(out.Products),
		"excluded", out.Excluded,
		"total_tariff_cost", out.Summary.TotalTariffCost)

	return service.Success(out)
}

func emptyBulkResult(name string) model.BulkAnalysisResult {
	return model.BulkAnalysisResult{
		ScenarioName: name,
		Products:     []model.CalculationResult{},
	}
}
