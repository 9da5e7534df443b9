package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/tariff-impact/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator over HTTP",
		Long: `Start the JSON API.

  GET  /health
  POST /v1/calculations            body: calculation input
  POST /v1/bulk                    body: {"scenario_name": ..., "products": [...]}
  GET  /v1/classifications?q=      search
  GET  /v1/classifications/{code}
  GET  /v1/exchange-rates/{base}
  GET  /v1/history
  GET  /v1/profiles
  GET  /v1/profiles/{name}
  POST /v1/profiles/{name}/analysis`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			handlers := api.NewHandlers(a.calculator, a.tariffs, a.exchange, api.WithStorage(store))
			return api.NewServer(a.settings.ServerAddress, api.NewRouter(handlers)).Run(ctx)
		},
	}

	cmd.Flags().String("address", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.address", cmd.Flags().Lookup("address"))

	return cmd
}
