package migration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

func TestGooseStrategy_UpAndDown(t *testing.T) {
	gdb := openSQLite(t)
	strategy := NewGooseStrategy("sqlite", t.TempDir())

	require.NoError(t, strategy.Migrate(gdb))

	for _, table := range []string{"users", "plans", "subscriptions"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
	assert.True(t, gdb.Migrator().HasIndex(&models.SubscriptionModel{}, "idx_subscriptions_stripe_subscription_id"))

	version, err := strategy.GetVersion(gdb)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Re-running is a no-op.
	require.NoError(t, strategy.Migrate(gdb))

	require.NoError(t, strategy.MigrateDown(gdb, 1))
	assert.False(t, gdb.Migrator().HasTable("subscriptions"))

	version, err = strategy.GetVersion(gdb)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

// The scripts and the models must describe the same columns.
func TestGooseSchemaMatchesModels(t *testing.T) {
	gdb := openSQLite(t)
	require.NoError(t, NewGooseStrategy("sqlite", t.TempDir()).Migrate(gdb))

	for _, model := range AutoMigrateModels() {
		stmt := &gorm.Statement{DB: gdb}
		require.NoError(t, stmt.Parse(model))
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" {
				continue
			}
			assert.True(t, gdb.Migrator().HasColumn(model, field.DBName), "%s.%s", stmt.Schema.Table, field.DBName)
		}
	}
}

func TestGooseSchemaRestrictsDeletingReferencedPlan(t *testing.T) {
	gdb := openSQLite(t)
	require.NoError(t, gdb.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, NewGooseStrategy("sqlite", t.TempDir()).Migrate(gdb))

	require.NoError(t, gdb.Exec(`INSERT INTO plans (id, name, display_name, plan_type, created_at, updated_at)
		VALUES ('plan-pro', 'pro', 'Pro', 'pro', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	require.NoError(t, gdb.Exec(`INSERT INTO subscriptions (id, user_id, plan_id, status, billing_interval, start_date, created_at, updated_at)
		VALUES ('sub-1', 'user-1', 'plan-pro', 'past_due', 'monthly', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)

	assert.Error(t, gdb.Exec("DELETE FROM plans WHERE id = 'plan-pro'").Error)

	require.NoError(t, gdb.Exec("DELETE FROM subscriptions WHERE id = 'sub-1'").Error)
	assert.NoError(t, gdb.Exec("DELETE FROM plans WHERE id = 'plan-pro'").Error)
}

func TestManager_TestEnvironmentUsesAutoMigrate(t *testing.T) {
	gdb := openSQLite(t)
	manager := NewManager("test", "sqlite")

	assert.Equal(t, "gorm_auto_migrate", manager.GetStrategy().GetName())
	require.NoError(t, manager.Migrate(gdb))
	assert.True(t, gdb.Migrator().HasTable(&models.PlanModel{}))
}

func TestGooseStrategy_Create(t *testing.T) {
	dir := t.TempDir()
	strategy := NewGooseStrategy("mysql", dir)

	require.NoError(t, strategy.Create("add_plan_features"))

	entries, err := filepath.Glob(filepath.Join(dir, "*_add_plan_features.sql"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
