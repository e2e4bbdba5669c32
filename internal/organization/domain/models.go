// Package domain contains persistence models for the organization service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionTier is the billing level of an organization.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

// NumberingConfig drives sequential document numbers. The counter restarts
// when the calendar year moves past LastResetYear.
type NumberingConfig struct {
	Format        string `gorm:"column:invoice_format;type:text" json:"format"`
	Prefix        string `gorm:"column:invoice_prefix;type:text" json:"prefix"`
	Counter       int64  `gorm:"column:invoice_counter;not null;default:0" json:"counter"`
	LastResetYear int    `gorm:"column:invoice_last_reset_year;not null;default:0" json:"last_reset_year"`
}

// Organization represents a tenant. It is keyed by the owning identity
// account's id.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	OwnerName string       `gorm:"column:owner_name;type:text" json:"owner_name"`

	TaxNumber          string `gorm:"column:tax_number;type:text" json:"tax_number"`
	RegistrationNumber string `gorm:"column:registration_number;type:text" json:"registration_number"`
	VATNumber          string `gorm:"column:vat_number;type:text" json:"vat_number"`
	CommerceRegistry   string `gorm:"column:commerce_registry;type:text" json:"commerce_registry"`

	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"type:text" json:"phone"`
	Email   string `gorm:"type:text" json:"email"`

	LogoURL      *string `gorm:"column:logo_url;type:text" json:"logo_url,omitempty"`
	SignatureURL *string `gorm:"column:signature_url;type:text" json:"signature_url,omitempty"`

	Numbering       NumberingConfig `gorm:"embedded" json:"numbering"`
	DefaultTemplate string          `gorm:"column:default_template;type:text" json:"default_template"`

	Tier                  SubscriptionTier `gorm:"column:subscription_tier;type:text;not null;default:'free'" json:"subscription_tier"`
	SubscriptionStartAt   time.Time        `gorm:"column:subscription_start_at" json:"subscription_start_at"`
	SubscriptionExpiresAt *time.Time       `gorm:"column:subscription_expires_at" json:"subscription_expires_at,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// IsPro reports whether the organization currently holds the pro tier. The
// expiry timestamp is meaningful only when this is true.
func (o *Organization) IsPro() bool {
	return o.Tier == TierPro
}
