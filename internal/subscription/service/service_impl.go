package service

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
	"github.com/smallbiznis/facture/internal/subscription/domain"
	"go.uber.org/zap"
)

type service struct {
	log      *zap.Logger
	orgs     orgdomain.Service
	clk      clock.Clock
	defaults *config.DefaultsHolder

	mu     sync.Mutex
	alerts map[snowflake.ID]domain.ExpiryAlert
}

func NewService(log *zap.Logger, orgs orgdomain.Service, clk clock.Clock, defaults *config.DefaultsHolder) domain.Service {
	return &service{
		log:      log.Named("subscription.service"),
		orgs:     orgs,
		clk:      clk,
		defaults: defaults,
		alerts:   make(map[snowflake.ID]domain.ExpiryAlert),
	}
}

// CheckExpiry runs on every session establishment for the owning account.
// The expiry boundary is exclusive: a subscription expiring at this exact
// instant is still valid.
func (s *service) CheckExpiry(ctx context.Context, org *orgdomain.Organization) (*orgdomain.Organization, error) {
	if org == nil {
		return nil, domain.ErrOrganizationRequired
	}
	if org.Tier != orgdomain.TierPro || org.SubscriptionExpiresAt == nil {
		return org, nil
	}

	now := s.clk.Now()
	expiresAt := *org.SubscriptionExpiresAt
	if !expiresAt.Before(now) {
		return org, nil
	}

	fields := orgdomain.SubscriptionFields{
		Tier:      orgdomain.TierFree,
		StartAt:   now.Unix(),
		ExpiresAt: now.Unix(),
	}
	if err := s.orgs.UpdateSubscription(ctx, org.ID, fields); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.alerts[org.ID] = domain.ExpiryAlert{OrgID: org.ID, ExpiredAt: expiresAt}
	s.mu.Unlock()

	s.log.Info("subscription downgraded",
		zap.Int64("org_id", int64(org.ID)),
		zap.Time("expired_at", expiresAt),
	)

	updated := *org
	updated.Tier = orgdomain.TierFree
	updated.SubscriptionStartAt = now
	updated.SubscriptionExpiresAt = &now
	return &updated, nil
}

func (s *service) ConsumeExpiryAlert(orgID snowflake.ID) (domain.ExpiryAlert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[orgID]
	if ok {
		delete(s.alerts, orgID)
	}
	return alert, ok
}

func (s *service) Upgrade(ctx context.Context, orgID snowflake.ID) (*orgdomain.Organization, error) {
	now := s.clk.Now()
	expires := now.AddDate(0, 0, s.defaults.Current().ProPeriodDays)

	fields := orgdomain.SubscriptionFields{
		Tier:      orgdomain.TierPro,
		StartAt:   now.Unix(),
		ExpiresAt: expires.Unix(),
	}
	if err := s.orgs.UpdateSubscription(ctx, orgID, fields); err != nil {
		s.log.Error("subscription upgrade failed",
			zap.Int64("org_id", int64(orgID)),
			zap.Error(err),
		)
		return nil, err
	}

	s.log.Info("subscription upgraded",
		zap.Int64("org_id", int64(orgID)),
		zap.Time("expires_at", expires),
	)
	return s.orgs.GetByID(ctx, orgID)
}
