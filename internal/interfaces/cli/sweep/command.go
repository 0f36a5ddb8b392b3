package sweep

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/database"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/http"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation pass",
		Long:  `Expire due scheduled cancellations, then reconcile credentials against the ledger, and exit.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap.LoadWithDatabase(env)
	if err != nil {
		return err
	}
	defer database.Close()

	log := logger.NewLogger()

	redisClient := bootstrap.OpenRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	container, err := httpRouter.NewContainer(cfg, database.Get(), redisClient, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return container.Scheduler().RunOnce(ctx)
}
