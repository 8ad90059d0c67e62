package main

import (
	"context"
	"encoding/json"
	"fmt"

	"food-ordering-agent/internal/catalog"
	"food-ordering-agent/internal/common/database"
	"food-ordering-agent/internal/common/logger"

	"github.com/spf13/cobra"
)

var checkOrderCmd = &cobra.Command{
	Use:   "check-order <id>",
	Short: "Print the status of a booked order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

		var backends catalog.Backends
		if cfg.Catalog.Backend == "elasticsearch" {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			backends.Elasticsearch = es
		}
		if cfg.Orders.Backend == "postgres" {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()
			backends.Postgres = pg
		}

		cat, err := catalog.New(ctx, cfg, backends, log)
		if err != nil {
			return err
		}
		status, err := cat.CheckOrder(ctx, args[0])
		if err != nil {
			return fmt.Errorf("check order %s: %w", args[0], err)
		}

		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}
