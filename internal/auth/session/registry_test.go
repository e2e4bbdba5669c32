package session

import (
	"testing"
	"time"

	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryIssueAndResolve(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewRegistry(config.Config{SessionTTLHours: 2}, clk)

	sess := authdomain.NewAdminSession(1, "owner@example.com", nil)
	token, expiresAt, err := r.Issue(sess)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, clk.Now().Add(2*time.Hour), expiresAt)

	resolved, ok := r.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "owner@example.com", resolved.Email())
}

func TestRegistryTokensAreUnique(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	r := NewRegistry(config.Config{SessionTTLHours: 1}, clk)

	sess := authdomain.NewAdminSession(1, "owner@example.com", nil)
	t1, _, err := r.Issue(sess)
	require.NoError(t, err)
	t2, _, err := r.Issue(sess)
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestRegistryExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewRegistry(config.Config{SessionTTLHours: 1}, clk)

	token, _, err := r.Issue(authdomain.NewAdminSession(1, "owner@example.com", nil))
	require.NoError(t, err)

	clk.Advance(61 * time.Minute)
	_, ok := r.Resolve(token)
	assert.False(t, ok)
}

func TestRegistryRevoke(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	r := NewRegistry(config.Config{SessionTTLHours: 1}, clk)

	token, _, err := r.Issue(authdomain.NewAdminSession(1, "owner@example.com", nil))
	require.NoError(t, err)

	r.Revoke(token)
	_, ok := r.Resolve(token)
	assert.False(t, ok)
}

func TestRegistryResolveUnknownToken(t *testing.T) {
	r := NewRegistry(config.Config{}, clock.NewSystemClock())
	_, ok := r.Resolve("nope")
	assert.False(t, ok)
}
