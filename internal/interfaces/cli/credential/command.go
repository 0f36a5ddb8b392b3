// Package credential holds operator commands against the entitlement provisioner.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/domain/subscription"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/litellm"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/bootstrap"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

var (
	env string
	key string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Inspect or delete provisioned credentials",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVar(&key, "key", "", "Credential id (required)")
	_ = cmd.MarkPersistentFlagRequired("key")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show a credential's limits",
			RunE:  runInfo,
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete a credential on the provisioning system",
			Long:  `Delete a credential outright. The ledger keeps its credential id; the next sweep clears it.`,
			RunE:  runDelete,
		},
	)

	return cmd
}

func newProvisioner() (*litellm.KeyProvisioner, error) {
	cfg, err := bootstrap.LoadConfig(env)
	if err != nil {
		return nil, err
	}

	p := litellm.NewKeyProvisioner(cfg.Provisioner, nil, logger.NewLogger())
	if !p.Enabled() {
		return nil, errors.New("provisioner.base_url and provisioner.api_key must be set")
	}
	return p, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	p, err := newProvisioner()
	if err != nil {
		return err
	}

	info, err := p.Info(context.Background(), key)
	if errors.Is(err, subscription.ErrCredentialNotFound) {
		return fmt.Errorf("credential %s not found", key)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Credential:          %s\n", info.ID)
	fmt.Fprintf(out, "Enabled:             %t\n", info.IsEnabled())
	fmt.Fprintf(out, "Allowed models:      %v\n", info.AllowedModels)
	fmt.Fprintf(out, "Requests per minute: %d\n", info.RequestsPerMinute)
	fmt.Fprintf(out, "Max parallel:        %d\n", info.MaxParallelRequests)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	p, err := newProvisioner()
	if err != nil {
		return err
	}

	if err := p.Delete(context.Background(), key); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted credential %s\n", key)
	return nil
}
