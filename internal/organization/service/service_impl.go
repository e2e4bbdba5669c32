package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/smallbiznis/facture/internal/organization/domain"
	"github.com/smallbiznis/facture/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	log      *zap.Logger
	conn     *gorm.DB
	repo     domain.Repository
	clk      clock.Clock
	defaults *config.DefaultsHolder
}

func NewService(log *zap.Logger, conn *gorm.DB, repo domain.Repository, clk clock.Clock, defaults *config.DefaultsHolder) domain.Service {
	return &service{
		log:      log.Named("organization.service"),
		conn:     conn,
		repo:     repo,
		clk:      clk,
		defaults: defaults,
	}
}

// Create seeds a new organization record at registration time. The record is
// keyed by the owning identity id and always starts on the free tier with
// both subscription timestamps set to now.
func (s *service) Create(ctx context.Context, req domain.CreateOrganizationRequest) (*domain.Organization, error) {
	if req.ID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.OwnerName)
	}
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	owner := strings.TrimSpace(req.OwnerName)
	if owner == "" {
		owner = ownerNameFromEmail(req.Email)
	}

	defaults := s.defaults.Current()
	now := s.clk.Now()
	expires := now
	org := &domain.Organization{
		ID:        req.ID,
		Name:      name,
		Slug:      slug.Make(name),
		OwnerName: owner,
		Email:     strings.TrimSpace(req.Email),
		Numbering: domain.NumberingConfig{
			Format:        defaults.InvoiceFormat,
			Prefix:        defaults.InvoicePrefix,
			Counter:       0,
			LastResetYear: now.Year(),
		},
		DefaultTemplate:       defaults.DocumentTemplate,
		Tier:                  domain.TierFree,
		SubscriptionStartAt:   now,
		SubscriptionExpiresAt: &expires,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.repo.Create(ctx, org); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrOrganizationExists
		}
		return nil, err
	}

	return org, nil
}

// ownerNameFromEmail derives the owner display name from the address' local
// part.
func ownerNameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	if id == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateSettings(ctx context.Context, id snowflake.ID, req domain.UpdateSettingsRequest) (*domain.Organization, error) {
	if id == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	fields := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			fields[column] = strings.TrimSpace(*value)
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
	}
	setString("tax_number", req.TaxNumber)
	setString("registration_number", req.RegistrationNumber)
	setString("vat_number", req.VATNumber)
	setString("commerce_registry", req.CommerceRegistry)
	setString("address", req.Address)
	setString("phone", req.Phone)
	setString("email", req.Email)
	setString("logo_url", req.LogoURL)
	setString("signature_url", req.SignatureURL)
	setString("invoice_format", req.NumberingFormat)
	setString("invoice_prefix", req.NumberingPrefix)
	setString("default_template", req.DefaultTemplate)

	if len(fields) > 0 {
		fields["updated_at"] = s.clk.Now()
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			s.log.Error("update settings failed",
				zap.String("org_id", id.String()),
				zap.Error(err),
			)
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateSubscription(ctx context.Context, id snowflake.ID, sub domain.SubscriptionFields) error {
	if id == 0 {
		return domain.ErrInvalidOrganization
	}
	if sub.Tier != domain.TierFree && sub.Tier != domain.TierPro {
		return domain.ErrInvalidSubscriptionTier
	}

	fields := map[string]any{
		"subscription_tier":       sub.Tier,
		"subscription_start_at":   time.Unix(sub.StartAt, 0).UTC(),
		"subscription_expires_at": time.Unix(sub.ExpiresAt, 0).UTC(),
		"updated_at":              s.clk.Now(),
	}
	return s.repo.UpdateFields(ctx, id, fields)
}

// NextDocumentNumber advances the numbering counter and renders the number.
// The counter restarts at 1 when the year rolls past the stored reset year.
func (s *service) NextDocumentNumber(ctx context.Context, id snowflake.ID) (string, error) {
	if id == 0 {
		return "", domain.ErrInvalidOrganization
	}

	var rendered string
	err := s.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org domain.Organization
		if err := tx.Where("id = ?", id).First(&org).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrOrganizationNotFound
			}
			return err
		}

		year := s.clk.Now().Year()
		seq := org.Numbering.Counter + 1
		resetYear := org.Numbering.LastResetYear
		if year > resetYear {
			seq = 1
			resetYear = year
		}

		if err := tx.Model(&domain.Organization{}).Where("id = ?", id).Updates(map[string]any{
			"invoice_counter":         seq,
			"invoice_last_reset_year": resetYear,
			"updated_at":              s.clk.Now(),
		}).Error; err != nil {
			return err
		}

		rendered = org.Numbering.Render(year, seq)
		return nil
	})
	if err != nil {
		return "", err
	}
	return rendered, nil
}
