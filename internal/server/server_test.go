package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authservice "github.com/smallbiznis/facture/internal/auth/service"
	"github.com/smallbiznis/facture/internal/auth/session"
	"github.com/smallbiznis/facture/internal/auth/state"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	identitydomain "github.com/smallbiznis/facture/internal/identity/domain"
	identitylocal "github.com/smallbiznis/facture/internal/identity/local"
	"github.com/smallbiznis/facture/internal/identity/password"
	identityrepo "github.com/smallbiznis/facture/internal/identity/repository"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
	orgrepo "github.com/smallbiznis/facture/internal/organization/repository"
	orgservice "github.com/smallbiznis/facture/internal/organization/service"
	subscriptionservice "github.com/smallbiznis/facture/internal/subscription/service"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
	subuserrepo "github.com/smallbiznis/facture/internal/subuser/repository"
	subuserservice "github.com/smallbiznis/facture/internal/subuser/service"
	"github.com/smallbiznis/facture/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupServerTest(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&identitydomain.Account{},
		&orgdomain.Organization{},
		&subuserdomain.SubUser{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))
	defaults := config.NewStaticDefaults(config.DefaultDefaults())
	verifier := password.NewVerifier()
	cfg := config.Config{SessionTTLHours: 24}

	provider := identitylocal.NewProvider(log, identityrepo.New(conn), verifier, node)
	orgs := orgservice.NewService(log, conn, orgrepo.NewRepository(conn), clk, defaults)
	subusers := subuserservice.NewService(log, subuserrepo.NewRepository(conn), verifier, node)
	subs := subscriptionservice.NewService(log, orgs, clk, defaults)
	establisher := authservice.New(log, provider, subusers, orgs, subs, state.NewStore(), clk, defaults)

	r := gin.New()
	r.Use(ErrorHandlingMiddleware())

	return NewServer(ServerParams{
		Gin:             r,
		Cfg:             cfg,
		Establisher:     establisher,
		Sessions:        session.NewManager(cfg),
		Registry:        session.NewRegistry(cfg, clk),
		OrganizationSvc: orgs,
		SubUserSvc:      subusers,
		SubscriptionSvc: subs,
	})
}

func doJSON(t *testing.T, s *Server, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, s *Server, name, email, secret string) []*http.Cookie {
	t.Helper()

	w := doJSON(t, s, http.MethodPost, "/auth/register", gin.H{
		"name":   name,
		"email":  email,
		"secret": secret,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func TestRegisterAndSessionRoundtrip(t *testing.T) {
	s := setupServerTest(t)

	cookies := registerAndLogin(t, s, "Acme", "owner@acme.test", "owner-secret")
	require.NotEmpty(t, cookies)

	w := doJSON(t, s, http.MethodGet, "/auth/session", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var view sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "admin", view.Role)
	assert.Equal(t, "owner@acme.test", view.Email)
	assert.True(t, view.Permissions["settings"])
}

func TestLoginFailureIsOpaque(t *testing.T) {
	s := setupServerTest(t)
	registerAndLogin(t, s, "Acme", "owner@acme.test", "owner-secret")

	w := doJSON(t, s, http.MethodPost, "/auth/login", gin.H{
		"email":  "owner@acme.test",
		"secret": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/auth/login", gin.H{
		"email":  "ghost@acme.test",
		"secret": "whatever",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "unknown email and bad secret are indistinguishable")
}

func TestAPIRequiresSession(t *testing.T) {
	s := setupServerTest(t)

	w := doJSON(t, s, http.MethodGet, "/api/organization", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubUserCRUDAndScopedAccess(t *testing.T) {
	s := setupServerTest(t)
	adminCookies := registerAndLogin(t, s, "Acme", "owner@acme.test", "owner-secret")

	// Create a clerk limited to dashboard and invoices.
	w := doJSON(t, s, http.MethodPost, "/api/sub-users", gin.H{
		"name":   "Clerk",
		"email":  "clerk@acme.test",
		"secret": "clerk-secret",
		"permissions": gin.H{
			"dashboard": true,
			"invoices":  true,
		},
	}, adminCookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created subuserdomain.SubUser
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Scoped login.
	w = doJSON(t, s, http.MethodPost, "/auth/login", gin.H{
		"email":  "clerk@acme.test",
		"secret": "clerk-secret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	clerkCookies := w.Result().Cookies()

	var login loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "user", login.Session.Role)
	assert.True(t, login.Session.Permissions["invoices"])
	assert.False(t, login.Session.Permissions["settings"])

	// The clerk may draw document numbers but not touch settings or the
	// directory.
	w = doJSON(t, s, http.MethodPost, "/api/organization/documents/next-number", nil, clerkCookies)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPatch, "/api/organization/settings", gin.H{"name": "Nope"}, clerkCookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/sub-users", nil, clerkCookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin edits with an invalid form get the validation taxonomy.
	w = doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/sub-users/%d", created.ID), gin.H{
		"name":        "Clerk",
		"email":       "clerk@acme.test",
		"secret":      "short",
		"permissions": gin.H{"dashboard": true},
	}, adminCookies)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")

	// Deactivate, then the clerk's next login fails.
	w = doJSON(t, s, http.MethodPatch, fmt.Sprintf("/api/sub-users/%d/status", created.ID), gin.H{
		"status": "inactive",
	}, adminCookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodPost, "/auth/login", gin.H{
		"email":  "clerk@acme.test",
		"secret": "clerk-secret",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubscriptionUpgradeEndpoint(t *testing.T) {
	s := setupServerTest(t)
	cookies := registerAndLogin(t, s, "Acme", "owner@acme.test", "owner-secret")

	w := doJSON(t, s, http.MethodPost, "/api/subscription/upgrade", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var org orgdomain.Organization
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &org))
	assert.Equal(t, orgdomain.TierPro, org.Tier)

	// The stored session mirrors the upgrade without a fresh login.
	w = doJSON(t, s, http.MethodGet, "/auth/session", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var view sessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.NotNil(t, view.Org)
	assert.Equal(t, string(orgdomain.TierPro), view.Org.Tier)
	require.NotNil(t, view.Org.ExpiresAt)
	wantExpiry := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, 30)
	assert.Equal(t, wantExpiry, view.Org.ExpiresAt.UTC())
}

func TestExpiredProLoginCarriesAlert(t *testing.T) {
	s := setupServerTest(t)
	registerAndLogin(t, s, "Acme", "owner@acme.test", "owner-secret")

	// Look up the org id through a session, then lapse its pro plan.
	ctx := context.Background()
	w := doJSON(t, s, http.MethodPost, "/auth/login", gin.H{
		"email":  "owner@acme.test",
		"secret": "owner-secret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var login loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	orgID, err := snowflake.ParseString(login.Session.OrgID)
	require.NoError(t, err)

	expired := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.organizationSvc.UpdateSubscription(ctx, orgID, orgdomain.SubscriptionFields{
		Tier:      orgdomain.TierPro,
		StartAt:   expired.AddDate(0, -1, 0).Unix(),
		ExpiresAt: expired.Unix(),
	}))

	w = doJSON(t, s, http.MethodPost, "/auth/login", gin.H{
		"email":  "owner@acme.test",
		"secret": "owner-secret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotNil(t, login.SubscriptionAlert)
	assert.Equal(t, "2024-03-01", login.SubscriptionAlert.ExpiredAt)
	assert.Equal(t, "free", login.Session.Org.Tier)
}
