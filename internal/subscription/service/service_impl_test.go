package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
	"github.com/smallbiznis/facture/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orgServiceMock struct {
	mock.Mock
}

func (m *orgServiceMock) Create(ctx context.Context, req orgdomain.CreateOrganizationRequest) (*orgdomain.Organization, error) {
	return nil, nil
}

func (m *orgServiceMock) GetByID(ctx context.Context, id snowflake.ID) (*orgdomain.Organization, error) {
	args := m.Called(ctx, id)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*orgdomain.Organization), args.Error(1)
}

func (m *orgServiceMock) UpdateSettings(ctx context.Context, id snowflake.ID, req orgdomain.UpdateSettingsRequest) (*orgdomain.Organization, error) {
	return nil, nil
}

func (m *orgServiceMock) UpdateSubscription(ctx context.Context, id snowflake.ID, fields orgdomain.SubscriptionFields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *orgServiceMock) NextDocumentNumber(ctx context.Context, id snowflake.ID) (string, error) {
	return "", nil
}

func newTestService(orgs orgdomain.Service, clk clock.Clock) domain.Service {
	return NewService(zap.NewNop(), orgs, clk, config.NewStaticDefaults(config.DefaultDefaults()))
}

func proOrg(id snowflake.ID, expires time.Time) *orgdomain.Organization {
	return &orgdomain.Organization{
		ID:                    id,
		Tier:                  orgdomain.TierPro,
		SubscriptionStartAt:   expires.AddDate(0, -1, 0),
		SubscriptionExpiresAt: &expires,
	}
}

func TestCheckExpiryDowngradesLapsedPro(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	expired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	orgs := new(orgServiceMock)
	orgs.On("UpdateSubscription", mock.Anything, snowflake.ID(1), orgdomain.SubscriptionFields{
		Tier:      orgdomain.TierFree,
		StartAt:   now.Unix(),
		ExpiresAt: now.Unix(),
	}).Return(nil)

	svc := newTestService(orgs, clk)

	updated, err := svc.CheckExpiry(context.Background(), proOrg(1, expired))
	require.NoError(t, err)

	assert.Equal(t, orgdomain.TierFree, updated.Tier)
	assert.Equal(t, now, updated.SubscriptionStartAt)
	require.NotNil(t, updated.SubscriptionExpiresAt)
	assert.Equal(t, now, *updated.SubscriptionExpiresAt)
	orgs.AssertExpectations(t)

	alert, ok := svc.ConsumeExpiryAlert(1)
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", alert.Date())

	_, ok = svc.ConsumeExpiryAlert(1)
	assert.False(t, ok, "alert is one-shot")
}

func TestCheckExpiryLeavesValidProAlone(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	orgs := new(orgServiceMock)
	svc := newTestService(orgs, clk)

	org := proOrg(2, now.AddDate(0, 0, 10))
	updated, err := svc.CheckExpiry(context.Background(), org)
	require.NoError(t, err)

	assert.Equal(t, orgdomain.TierPro, updated.Tier)
	orgs.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)

	_, ok := svc.ConsumeExpiryAlert(2)
	assert.False(t, ok)
}

func TestCheckExpiryBoundaryIsExclusive(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)

	orgs := new(orgServiceMock)
	svc := newTestService(orgs, clk)

	// Expiring at exactly now is still valid.
	updated, err := svc.CheckExpiry(context.Background(), proOrg(3, now))
	require.NoError(t, err)
	assert.Equal(t, orgdomain.TierPro, updated.Tier)
	orgs.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckExpiryIgnoresFreeTier(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(-1, 0, 0)

	orgs := new(orgServiceMock)
	svc := newTestService(orgs, clock.NewFakeClock(now))

	org := &orgdomain.Organization{
		ID:                    4,
		Tier:                  orgdomain.TierFree,
		SubscriptionExpiresAt: &past,
	}
	updated, err := svc.CheckExpiry(context.Background(), org)
	require.NoError(t, err)
	assert.Equal(t, orgdomain.TierFree, updated.Tier)
	orgs.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckExpiryNilOrganization(t *testing.T) {
	svc := newTestService(new(orgServiceMock), clock.NewFakeClock(time.Now()))

	_, err := svc.CheckExpiry(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrOrganizationRequired)
}

func TestUpgradeGrantsThirtyDays(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	expires := now.AddDate(0, 0, 30)

	orgs := new(orgServiceMock)
	orgs.On("UpdateSubscription", mock.Anything, snowflake.ID(5), orgdomain.SubscriptionFields{
		Tier:      orgdomain.TierPro,
		StartAt:   now.Unix(),
		ExpiresAt: expires.Unix(),
	}).Return(nil)
	orgs.On("GetByID", mock.Anything, snowflake.ID(5)).Return(&orgdomain.Organization{
		ID:                    5,
		Tier:                  orgdomain.TierPro,
		SubscriptionStartAt:   now,
		SubscriptionExpiresAt: &expires,
	}, nil)

	svc := newTestService(orgs, clk)

	org, err := svc.Upgrade(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, orgdomain.TierPro, org.Tier)
	orgs.AssertExpectations(t)
}

func TestUpgradeSurfacesStoreError(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	storeErr := errors.New("connection reset")
	orgs := new(orgServiceMock)
	orgs.On("UpdateSubscription", mock.Anything, snowflake.ID(6), mock.Anything).Return(storeErr)

	svc := newTestService(orgs, clk)

	_, err := svc.Upgrade(context.Background(), 6)
	assert.ErrorIs(t, err, storeErr)
	orgs.AssertExpectations(t)
}
