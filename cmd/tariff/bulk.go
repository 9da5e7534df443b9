package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tariff-impact/internal/cli"
	"github.com/Veraticus/tariff-impact/internal/engine"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

func bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk <scenario.yaml>",
		Short: "Analyze many products as one scenario",
		Long: `Run a calculation for every product in a YAML scenario file and summarize
the combined tariff impact.

Scenario file layout:

  scenario_name: Q3 sourcing plan
  products:
    - classification_code: "8471.30.01"
      product_name: Laptops
      origin_country: CN
      import_value: 10000
      currency: USD
      shipping_cost: 250`,
		Args: cobra.ExactArgs(1),
		RunE: runBulk,
	}

	cmd.Flags().String("name", "", "override the scenario name")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().Bool("quiet", false, "hide the progress bar")

	return cmd
}

func runBulk(cmd *cobra.Command, args []string) error {
	scenario, err := loadScenario(args[0])
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = scenario.ScenarioName
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")

	return analyze(cmd, name, scenario.Products, asJSON, quiet)
}

// analyze runs a bulk analysis with progress and interrupt handling and renders it.
func analyze(cmd *cobra.Command, name string, products []model.CalculationInput, asJSON, quiet bool) error {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Bulk analysis stopped before completion.")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res := runAnalysis(ctx, a.calculator, name, products, cmd.ErrOrStderr(), !asJSON && !quiet)
	if handler.WasInterrupted() {
		return fmt.Errorf("bulk analysis interrupted: %w", context.Canceled)
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), bulkOutput{
			Success: res.OK(),
			Result:  res.Value,
			Error:   errText(res.Err),
		})
	}
	return cli.RenderBulk(cmd.OutOrStdout(), res.Value, res.Err)
}

type bulkRunner interface {
	CalculateBulk(ctx context.Context, inputs []model.CalculationInput, opts engine.BulkOptions) service.Result[model.BulkAnalysisResult]
}

func runAnalysis(ctx context.Context, calc bulkRunner, name string, products []model.CalculationInput, progressOut io.Writer, showProgress bool) service.Result[model.BulkAnalysisResult] {
	opts := engine.BulkOptions{ScenarioName: name}
	if showProgress {
		progress := cli.NewBulkProgress(progressOut, len(products))
		defer progress.Finish()
		opts.Progress = progress.Update
	}
	return calc.CalculateBulk(ctx, products, opts)
}

type bulkOutput struct {
	Result  model.BulkAnalysisResult `json:"result"`
	Error   string                   `json:"error,omitempty"`
	Success bool                     `json:"success"`
}
