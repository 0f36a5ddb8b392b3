package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/constants"
)

// SubscriptionModel represents the database persistence model for subscriptions
// Rows are never deleted; cancellation is a status change.
type SubscriptionModel struct {
	ID                   string    `gorm:"primarykey;size:36"`
	UserID               string    `gorm:"not null;size:36;index:idx_subscriptions_user_status,priority:1"`
	PlanID               string    `gorm:"not null;size:36;index:idx_subscriptions_plan"`
	Status               string    `gorm:"not null;size:20;index:idx_subscriptions_user_status,priority:2"`
	BillingInterval      string    `gorm:"not null;size:20"`
	StartDate            time.Time `gorm:"not null"`
	TrialEndDate         *time.Time
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CanceledAt           *time.Time
	EndDate              *time.Time `gorm:"index:idx_subscriptions_end_date"`
	CancelReason         *string    `gorm:"size:500"`
	StripeSubscriptionID *string    `gorm:"uniqueIndex;size:100"`
	StripeCustomerID     *string    `gorm:"size:100"`
	CredentialID         *string    `gorm:"size:255"`
	Version              int        `gorm:"not null;default:1"`
	CreatedAt            time.Time  `gorm:"index:idx_subscriptions_created_at"`
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM
func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

// BeforeCreate hook for GORM
func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}
