package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/db"
	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/logger"
)

// On MySQL the lock order is user row first, then the subscription row.
func TestRowLocksOnMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	users := NewUserRepository(gdb, logger.NewNopLogger())
	subs := NewSubscriptionRepository(gdb, logger.NewNopLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE id = \\?.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "tier"}).
			AddRow("user-1", "user-1@example.com", "user-1", "pro"))
	mock.ExpectQuery("SELECT \\* FROM `subscriptions` WHERE id = \\?.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err = db.NewTransactionManager(gdb).RunInTransaction(context.Background(), func(ctx context.Context) error {
		u, err := users.GetByIDForUpdate(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, u)

		s, err := subs.GetByIDForUpdate(ctx, "sub-1")
		require.NoError(t, err)
		assert.Nil(t, s)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Plan deletion takes the row exclusively; subscribers hold a shared lock on their target plan.
func TestPlanLocksOnMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	plans := NewPlanRepository(gdb, logger.NewNopLogger())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `plans` WHERE id = \\?.* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT \\* FROM `plans` WHERE id = \\?.* FOR SHARE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err = db.NewTransactionManager(gdb).RunInTransaction(context.Background(), func(ctx context.Context) error {
		p, err := plans.GetByIDForUpdate(ctx, "plan-pro")
		require.NoError(t, err)
		assert.Nil(t, p)

		p, err = plans.GetByIDForShare(ctx, "plan-pro")
		require.NoError(t, err)
		assert.Nil(t, p)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = plans.GetByIDForUpdate(context.Background(), "plan-pro")
	assert.Error(t, err)
}
