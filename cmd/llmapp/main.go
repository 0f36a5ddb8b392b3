// @title llmapp API
// @version 1.0
// @description Plan catalog, subscription ledger and billing webhooks.
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/credential"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/migrate"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/server"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/sweep"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/token"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "llmapp",
		Short:        "llmapp - subscription and entitlement service",
		Long:         `llmapp keeps plan subscriptions, billing events and provisioned model credentials in agreement.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
		sweep.NewCommand(),
		credential.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
