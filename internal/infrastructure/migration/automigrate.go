package migration

import (
	"github.com/nat-prohmpiriya/llm-application-framework/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.PlanModel{},
		&models.SubscriptionModel{},
	}
}
