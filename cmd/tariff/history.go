package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/tariff-impact/internal/cli"
	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/service"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded calculations",
		Long:  `List, inspect, and clear calculations recorded by 'tariff calculate'.`,
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyClearCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent calculations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			limit, _ := cmd.Flags().GetInt("limit")
			code, _ := cmd.Flags().GetString("code")
			since, _ := cmd.Flags().GetDuration("since")
			asJSON, _ := cmd.Flags().GetBool("json")

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter := service.HistoryFilter{Code: code, Limit: limit}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}

			entries, err := store.ListCalculations(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list calculations: %w", err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return cli.RenderHistory(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of entries")
	cmd.Flags().String("code", "", "only show this classification code")
	cmd.Flags().Duration("since", 0, "only show entries newer than this (e.g. 24h)")
	cmd.Flags().Bool("json", false, "print entries as JSON")

	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entry, err := store.GetCalculation(ctx, args[0])
			if err != nil {
				return common.NewUserError(fmt.Sprintf("No calculation with id %s", args[0]), err)
			}

			var degraded error
			if !entry.Success {
				degraded = errors.New("recorded as a degraded result")
			}
			return cli.RenderCalculation(cmd.OutOrStdout(), entry.Result, degraded)
		},
	}
}

func historyClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded calculations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return common.NewUserError("Refusing to clear history without --yes", nil)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			n, err := store.ClearCalculations(ctx)
			if err != nil {
				return fmt.Errorf("failed to clear history: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d calculation(s)", n)))
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "confirm deletion")
	return cmd
}
