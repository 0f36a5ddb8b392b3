package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/nat-prohmpiriya/llm-application-framework/internal/shared/constants"
)

// UserModel holds the account columns this service reads and writes.
type UserModel struct {
	ID        string `gorm:"primarykey;size:36"`
	Email     string `gorm:"uniqueIndex;not null;size:255"`
	Username  string `gorm:"not null;size:100"`
	Tier      string `gorm:"not null;size:20"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return constants.TableUsers
}

// BeforeCreate hook for GORM
func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.Tier == "" {
		u.Tier = constants.DefaultTier
	}
	return nil
}
