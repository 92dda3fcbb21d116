package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadflow/leadflow/internal/app"
)

func DigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Send today's task digest to every user now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				sent, err := a.DigestService.Run(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "sent %d digest(s)\n", sent)
				return nil
			})
		},
	}
}
