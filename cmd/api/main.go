package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "orderd",
		Short:        "Order service: HTTP API, schema migrations and catalog seeding",
		SilenceUsage: true,
	}
	cmd.AddCommand(serveCmd(), migrateCmd(), seedCmd())
	return cmd
}
