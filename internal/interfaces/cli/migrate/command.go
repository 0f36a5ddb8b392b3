package migrate

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/config"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/database"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/migration"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/seeds"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/repository"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/interfaces/cli/bootstrap"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

var (
	env      string
	name     string
	steps    int
	seedFile string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations and seed the plan catalog.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
		newCreateCommand(),
		newSeedPlansCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		RunE:  runUp,
	}
}

func newDownCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE:  runDown,
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to rollback")

	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE:  runStatus,
	}
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new SQL migration",
		RunE:  runCreate,
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the migration (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newSeedPlansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-plans",
		Short: "Create missing plans from a YAML catalog",
		Long:  `Create every plan in the catalog whose name does not exist yet. Without --file the built-in catalog is used.`,
		RunE:  runSeedPlans,
	}

	cmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to a plans YAML catalog")

	return cmd
}

func initEnv() (*config.Config, *migration.GooseStrategy, logger.Interface, error) {
	cfg, err := bootstrap.LoadWithDatabase(env)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, migration.NewGooseStrategy(cfg.Database.Driver, migration.DefaultScriptsPath), logger.NewLogger(), nil
}

func runUp(cmd *cobra.Command, args []string) error {
	_, strategy, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running up migrations", "environment", env)

	if err := strategy.Migrate(database.Get()); err != nil {
		log.Errorw("migration failed", "error", err)
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed successfully")
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	_, strategy, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	log.Infow("running down migrations", "environment", env, "steps", steps)

	if err := strategy.MigrateDown(database.Get(), steps); err != nil {
		log.Errorw("down migration failed", "error", err)
		return fmt.Errorf("down migration failed: %w", err)
	}

	log.Infow("down migration completed successfully")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	_, strategy, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := strategy.GetVersion(database.Get())
	if err != nil {
		log.Errorw("failed to get migration version", "error", err)
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nMigration Status:\n")
	fmt.Fprintf(out, "  Environment:     %s\n", env)
	fmt.Fprintf(out, "  Current Version: %d\n", version)

	if err := strategy.Status(database.Get()); err != nil {
		return fmt.Errorf("failed to get detailed status: %w", err)
	}

	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap.LoadConfig(env)
	if err != nil {
		return err
	}
	log := logger.NewLogger()

	strategy := migration.NewGooseStrategy(cfg.Database.Driver, migration.DefaultScriptsPath)
	if err := strategy.Create(name); err != nil {
		log.Errorw("failed to create migration", "error", err)
		return fmt.Errorf("failed to create migration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migration '%s' created in %s\n", name, migration.DefaultScriptsPath)
	return nil
}

func runSeedPlans(cmd *cobra.Command, args []string) error {
	_, _, log, err := initEnv()
	if err != nil {
		return err
	}
	defer database.Close()

	catalog := seeds.DefaultPlans
	if seedFile != "" {
		catalog, err = os.ReadFile(seedFile)
		if err != nil {
			return fmt.Errorf("failed to read plan catalog: %w", err)
		}
	}

	repo := repository.NewPlanRepository(database.Get(), log)
	created, err := seeds.SeedPlans(context.Background(), repo, catalog, log)
	if err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d plan(s)\n", created)
	return nil
}
