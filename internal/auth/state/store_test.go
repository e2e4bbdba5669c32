package state

import (
	"testing"

	authdomain "github.com/smallbiznis/facture/internal/auth/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminSession(email string) authdomain.Session {
	return authdomain.NewAdminSession(1, email, nil)
}

func TestStoreHappyPath(t *testing.T) {
	s := NewStore()

	s.Begin("owner@example.com")
	assert.Equal(t, Establishing, s.Phase("owner@example.com"))

	s.Authenticate("owner@example.com", adminSession("owner@example.com"))
	assert.Equal(t, Authenticated, s.Phase("owner@example.com"))

	sess, ok := s.Take("owner@example.com")
	require.True(t, ok)
	assert.Equal(t, "owner@example.com", sess.Email())

	// Taken means gone.
	_, ok = s.Take("owner@example.com")
	assert.False(t, ok)
	assert.Equal(t, Unauthenticated, s.Phase("owner@example.com"))
}

func TestStoreDepositWithoutBeginIsIgnored(t *testing.T) {
	s := NewStore()

	s.Authenticate("owner@example.com", adminSession("owner@example.com"))

	_, ok := s.Take("owner@example.com")
	assert.False(t, ok)
}

func TestStoreTakeBeforeAuthenticateFails(t *testing.T) {
	s := NewStore()

	s.Begin("owner@example.com")
	_, ok := s.Take("owner@example.com")
	assert.False(t, ok)

	// The failed take resets the attempt.
	assert.Equal(t, Unauthenticated, s.Phase("owner@example.com"))
}

func TestStoreClear(t *testing.T) {
	s := NewStore()

	s.Begin("owner@example.com")
	s.Authenticate("owner@example.com", adminSession("owner@example.com"))
	s.Clear("owner@example.com")

	_, ok := s.Take("owner@example.com")
	assert.False(t, ok)
}

func TestStoreKeysAreNormalized(t *testing.T) {
	s := NewStore()

	s.Begin("  Owner@Example.COM ")
	s.Authenticate("owner@example.com", adminSession("owner@example.com"))

	_, ok := s.Take("OWNER@example.com")
	assert.True(t, ok)
}

func TestStoreBeginDiscardsStaleSession(t *testing.T) {
	s := NewStore()

	s.Begin("owner@example.com")
	s.Authenticate("owner@example.com", adminSession("owner@example.com"))

	s.Begin("owner@example.com")
	assert.Equal(t, Establishing, s.Phase("owner@example.com"))

	_, ok := s.Take("owner@example.com")
	assert.False(t, ok)
}
