package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tariff-impact/internal/cli"
	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/engine"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search classification codes",
		Long:  `Find classification codes whose code, description, or category contains the query.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args, " ")

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			hits := a.tariffs.Search(ctx, query)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), hits)
			}
			return cli.RenderSearch(cmd.OutOrStdout(), query, hits)
		},
	}
	cmd.Flags().Bool("json", false, "print results as JSON")
	return cmd
}

func lookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <code>",
		Short: "Show the rates for a classification code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.tariffs.GetClassificationData(ctx, args[0])
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return cli.RenderRecord(cmd.OutOrStdout(), res.Value, res.Err)
		},
	}
	cmd.Flags().Bool("json", false, "print the record as JSON")
	return cmd
}

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates [base]",
		Short: "Show exchange rates",
		Long:  `Show exchange rates relative to a base currency (default USD). Falls back to a static table when the rate service is unreachable.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			base := engine.BaseCurrency
			if len(args) == 1 {
				base = strings.ToUpper(args[0])
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.exchange.GetRates(ctx, base)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), res.Value)
			}
			return cli.RenderRates(cmd.OutOrStdout(), base, res.Value, res.Err)
		},
	}
	cmd.Flags().Bool("json", false, "print rates as JSON")
	return cmd
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "convert <amount> <from> <to>",
		Short:   "Convert an amount between currencies",
		Example: "  tariff convert 1000 EUR USD",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("%q is not a number", args[0]), err)
			}
			from, to := strings.ToUpper(args[1]), strings.ToUpper(args[2])

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			res := a.exchange.Convert(ctx, amount, from, to)
			if res.Value.Rate == 0 && res.Err != nil {
				return common.NewUserError(fmt.Sprintf("Cannot convert %s to %s", from, to), res.Err)
			}
			return cli.RenderConversion(cmd.OutOrStdout(), amount, res.Value, res.Err)
		},
	}
}
