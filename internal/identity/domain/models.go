// Package domain contains core types for the identity provider.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Account is a persisted owner-level login account.
type Account struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ExternalID string            `gorm:"type:text;not null;uniqueIndex"`
	Email      string            `gorm:"type:text;not null;uniqueIndex"`
	SecretHash string            `gorm:"type:text;not null"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "identity_accounts" }

// Identity is the provider-visible view of a signed-in account.
type Identity struct {
	ID    snowflake.ID
	Email string
}
