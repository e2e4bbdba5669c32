package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateOrganizationRequest struct {
	ID        snowflake.ID // owning identity account id
	Name      string
	OwnerName string
	Email     string
}

type UpdateSettingsRequest struct {
	Name               *string `json:"name,omitempty"`
	TaxNumber          *string `json:"tax_number,omitempty"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
	VATNumber          *string `json:"vat_number,omitempty"`
	CommerceRegistry   *string `json:"commerce_registry,omitempty"`
	Address            *string `json:"address,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Email              *string `json:"email,omitempty"`
	LogoURL            *string `json:"logo_url,omitempty"`
	SignatureURL       *string `json:"signature_url,omitempty"`
	NumberingFormat    *string `json:"numbering_format,omitempty"`
	NumberingPrefix    *string `json:"numbering_prefix,omitempty"`
	DefaultTemplate    *string `json:"default_template,omitempty"`
}

// SubscriptionFields is the slice of the record the subscription service is
// allowed to write.
type SubscriptionFields struct {
	Tier      SubscriptionTier
	StartAt   int64 // unix seconds
	ExpiresAt int64 // unix seconds
}

type Service interface {
	Create(ctx context.Context, req CreateOrganizationRequest) (*Organization, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	UpdateSettings(ctx context.Context, id snowflake.ID, req UpdateSettingsRequest) (*Organization, error)
	UpdateSubscription(ctx context.Context, id snowflake.ID, fields SubscriptionFields) error
	NextDocumentNumber(ctx context.Context, id snowflake.ID) (string, error)
}

var (
	ErrInvalidName             = errors.New("invalid_name")
	ErrInvalidOrganization     = errors.New("invalid_organization")
	ErrOrganizationNotFound    = errors.New("organization_not_found")
	ErrOrganizationExists      = errors.New("organization_exists")
	ErrInvalidSubscriptionTier = errors.New("invalid_subscription_tier")
)
