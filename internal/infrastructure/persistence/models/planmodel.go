package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/constants"
)

// PlanModel represents the database persistence model for catalog plans
// This is the anti-corruption layer between domain and database
type PlanModel struct {
	ID                   string `gorm:"primarykey;size:36"`
	Name                 string `gorm:"uniqueIndex;not null;size:50"`
	DisplayName          string `gorm:"not null;size:100"`
	Description          string `gorm:"type:text"`
	PlanType             string `gorm:"not null;size:20;index:idx_plans_type"`
	PriceMonthly         int64  `gorm:"not null"`
	PriceYearly          *int64
	Currency             string `gorm:"not null;size:3"`
	TokensPerMonth       int64  `gorm:"not null"`
	RequestsPerMinute    int    `gorm:"not null"`
	RequestsPerDay       int    `gorm:"not null"`
	MaxDocuments         int    `gorm:"not null"`
	MaxProjects          int    `gorm:"not null"`
	MaxAgents            int    `gorm:"not null"`
	AllowedModels        datatypes.JSON
	IsActive             bool    `gorm:"not null;index:idx_plans_visibility,priority:1"`
	IsPublic             bool    `gorm:"not null;index:idx_plans_visibility,priority:2"`
	StripePriceIDMonthly *string `gorm:"size:100"`
	StripePriceIDYearly  *string `gorm:"size:100"`
	StripeProductID      *string `gorm:"size:100"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// TableName specifies the table name for GORM
func (PlanModel) TableName() string {
	return constants.TablePlans
}

// BeforeCreate hook for GORM
func (p *PlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.Currency == "" {
		p.Currency = constants.DefaultCurrency
	}
	return nil
}
