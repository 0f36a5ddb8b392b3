package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/auth"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/bootstrap"
)

type options struct {
	env    string
	userID string
	role   string
	ttl    time.Duration
}

func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token",
		Long:  `Sign a bearer token with the configured JWT secret for calling the admin API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVar(&opts.userID, "user", "", "User id placed in the token (required)")
	cmd.Flags().StringVar(&opts.role, "role", auth.RoleAdmin, "Role placed in the token")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "Token lifetime (default auth.token_ttl)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := bootstrap.LoadConfig(opts.env)
	if err != nil {
		return err
	}

	svc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	signed, err := svc.Generate(opts.userID, opts.role, opts.ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}
