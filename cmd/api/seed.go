package main

import (
	"fmt"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func seedCmd() *cobra.Command {
	var file string

	c := &cobra.Command{
		Use:   "seed",
		Short: "Upsert customers and products from a YAML fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if err := requirePostgres(rt.cfg, "seed"); err != nil {
				return err
			}
			if file == "" {
				file = rt.cfg.SeedFile
			}
			fixture, err := seed.Load(file)
			if err != nil {
				return err
			}

			be, err := openPostgres(ctx, rt)
			if err != nil {
				return err
			}
			defer be.close()

			res, err := seed.Apply(ctx, app.NewAdminService(be.admin, be.products), fixture)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			rt.logger.Info("seed applied",
				zap.Int("customers", res.Customers),
				zap.Int("products", res.Products))
			return nil
		},
	}

	c.Flags().StringVarP(&file, "file", "f", "", "YAML fixture (defaults to SEED_FILE, then the built-in catalog)")
	return c
}
