// Command opstoken mints an admin access token for the resolution ops API,
// signed with the worker's JWT_SECRET_KEY.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/hris-punch-resolution/internal/config"
	"github.com/cmlabs-hris/hris-punch-resolution/internal/pkg/jwt"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var userID, email string

	cmd := &cobra.Command{
		Use:          "opstoken",
		Short:        "Mint an admin token for the resolution ops API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}

			token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).
				GenerateAccessToken(userID, email, nil, true)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "expires at", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "operator user id")
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
