package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/tariff-impact/internal/cli"
	"github.com/Veraticus/tariff-impact/internal/model"
)

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the tariff impact of one import",
		Long: `Look up the tariff rate for a classification code and origin country,
convert the import value to USD, and report the landed cost and impact.

Results that fall back to default rates are still shown, marked as degraded.`,
		Example: `  tariff calculate --code 8471.30.01 --country CN --value 10000
  tariff calculate --code 6109.10.00 --country BD --value 5000 --currency EUR --shipping 250`,
		RunE: runCalculate,
	}

	cmd.Flags().String("code", "", "classification code (required)")
	cmd.Flags().String("country", "", "origin country code (required)")
	cmd.Flags().Float64("value", 0, "import value (required)")
	cmd.Flags().String("currency", "USD", "currency of the import value")
	cmd.Flags().String("product", "", "product name")
	cmd.Flags().Float64("shipping", 0, "shipping cost")
	cmd.Flags().Float64("insurance", 0, "insurance cost")
	cmd.Flags().Float64("warehousing", 0, "warehousing cost")
	cmd.Flags().Bool("json", false, "print the result as JSON")
	cmd.Flags().Bool("no-save", false, "do not record the calculation in history")

	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("country")
	_ = cmd.MarkFlagRequired("value")

	return cmd
}

func runCalculate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	input := model.CalculationInput{}
	input.ClassificationCode, _ = flags.GetString("code")
	input.OriginCountry, _ = flags.GetString("country")
	input.ImportValue, _ = flags.GetFloat64("value")
	input.Currency, _ = flags.GetString("currency")
	input.ProductName, _ = flags.GetString("product")
	input.ShippingCost, _ = flags.GetFloat64("shipping")
	input.InsuranceCost, _ = flags.GetFloat64("insurance")
	input.WarehousingCost, _ = flags.GetFloat64("warehousing")
	asJSON, _ := flags.GetBool("json")
	noSave, _ := flags.GetBool("no-save")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res := a.calculator.Calculate(ctx, input)

	if !noSave && input.Validate() == nil {
		recordCalculation(ctx, res.Value, res.OK())
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), calculationOutput{
			Success: res.OK(),
			Result:  res.Value,
			Error:   errText(res.Err),
		})
	}
	return cli.RenderCalculation(cmd.OutOrStdout(), res.Value, res.Err)
}

type calculationOutput struct {
	Result  model.CalculationResult `json:"result"`
	Error   string                  `json:"error,omitempty"`
	Success bool                    `json:"success"`
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
