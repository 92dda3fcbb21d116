package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leadflow/leadflow/cmd/leadflow/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "leadflow",
		Short:        "Administration tools for LeadFlow",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.TokensCmd())
	rootCmd.AddCommand(cmd.DigestCmd())
	rootCmd.AddCommand(cmd.GenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
