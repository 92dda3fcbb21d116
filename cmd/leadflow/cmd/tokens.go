package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leadflow/leadflow/internal/app"
	"github.com/leadflow/leadflow/internal/config"
	"github.com/leadflow/leadflow/internal/logger"
	"github.com/leadflow/leadflow/internal/model"
)

func TokensCmd() *cobra.Command {
	var email string

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage a user's public form tokens",
	}
	tokensCmd.PersistentFlags().StringVar(&email, "email", "", "email of the token owner")
	_ = tokensCmd.MarkPersistentFlagRequired("email")

	var label string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a new form token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.ByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("user %s: %w", email, err)
				}

				token, err := a.FormTokenService.Create(cmd.Context(), user.ID, label)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), token.Token)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&label, "label", "", "where the token is used")
	tokensCmd.AddCommand(createCmd)

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List form tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.ByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("user %s: %w", email, err)
				}

				tokens, err := a.FormTokenService.Tokens(cmd.Context(), user.ID)
				if err != nil {
					return err
				}

				printTokens(cmd, tokens)
				return nil
			})
		},
	})

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke a form token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				user, err := a.UserService.ByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("user %s: %w", email, err)
				}

				err = a.FormTokenService.Revoke(cmd.Context(), user.ID, args[0])
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return nil
			})
		},
	})

	return tokensCmd
}

func printTokens(cmd *cobra.Command, tokens []*model.FormToken) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOKEN\tLABEL\tCREATED")
	for _, t := range tokens {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Token, t.Label, t.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

// withApp builds the full application, migrations included, for one command.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg := config.Load()
	flush := logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cfg.AppEnv)
	defer flush()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	return fn(a)
}
