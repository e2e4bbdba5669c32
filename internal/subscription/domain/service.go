// Package domain defines the subscription lifecycle operations.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
)

// ExpiryAlert records a completed downgrade so the owner can be told once.
// ExpiredAt is the subscription expiry as it stood before the downgrade
// rewrote it.
type ExpiryAlert struct {
	OrgID     snowflake.ID
	ExpiredAt time.Time
}

// Date renders the pre-downgrade expiry for display.
func (a ExpiryAlert) Date() string {
	return a.ExpiredAt.Format("2006-01-02")
}

type Service interface {
	// CheckExpiry downgrades the organization to the free tier when its pro
	// subscription has lapsed. It returns the refreshed record. Organizations
	// on the free tier, or pro organizations whose expiry has not strictly
	// passed, come back untouched.
	CheckExpiry(ctx context.Context, org *orgdomain.Organization) (*orgdomain.Organization, error)

	// ConsumeExpiryAlert returns the pending downgrade alert for the
	// organization, at most once per downgrade.
	ConsumeExpiryAlert(orgID snowflake.ID) (ExpiryAlert, bool)

	// Upgrade moves the organization to the pro tier with a fresh validity
	// window starting now.
	Upgrade(ctx context.Context, orgID snowflake.ID) (*orgdomain.Organization, error)
}

var ErrOrganizationRequired = errors.New("organization_required")
