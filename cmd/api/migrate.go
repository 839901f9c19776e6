package main

import (
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if err := requirePostgres(rt.cfg, "migrate"); err != nil {
				return err
			}
			be, err := openPostgres(ctx, rt)
			if err != nil {
				return err
			}
			be.close()
			rt.logger.Info("schema up to date")
			return nil
		},
	}
}
