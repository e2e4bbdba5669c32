// Package service implements the session establisher.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/facture/internal/auth/domain"
	"github.com/smallbiznis/facture/internal/auth/state"
	"github.com/smallbiznis/facture/internal/clock"
	"github.com/smallbiznis/facture/internal/config"
	identitydomain "github.com/smallbiznis/facture/internal/identity/domain"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
	subscriptiondomain "github.com/smallbiznis/facture/internal/subscription/domain"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
	"go.uber.org/zap"
)

type establisher struct {
	log      *zap.Logger
	provider identitydomain.Provider
	subusers subuserdomain.Service
	orgs     orgdomain.Service
	subs     subscriptiondomain.Service
	store    *state.Store
	clk      clock.Clock
	defaults *config.DefaultsHolder
}

// New builds the establisher and registers it with the identity provider so
// state changes flow through handleStateChange. Admin sessions are created
// only on that path.
func New(
	log *zap.Logger,
	provider identitydomain.Provider,
	subusers subuserdomain.Service,
	orgs orgdomain.Service,
	subs subscriptiondomain.Service,
	store *state.Store,
	clk clock.Clock,
	defaults *config.DefaultsHolder,
) domain.Establisher {
	e := &establisher{
		log:      log.Named("auth.establisher"),
		provider: provider,
		subusers: subusers,
		orgs:     orgs,
		subs:     subs,
		store:    store,
		clk:      clk,
		defaults: defaults,
	}
	provider.OnStateChange(e.handleStateChange)
	return e
}

// Login first consults the sub-user directory. An active sub-user with a
// matching secret gets a scoped session and the provider is never called.
// Anything else falls through to the identity provider; its state handler
// deposits the admin session, which Login collects afterwards.
func (e *establisher) Login(ctx context.Context, email, secret string) (domain.Session, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || secret == "" {
		return nil, false
	}

	sess, err := e.loginSubUser(ctx, email, secret)
	if err == nil {
		return sess, true
	}
	if !errors.Is(err, errNoDirectoryMatch) {
		// A matched sub-user that cannot be logged in (missing
		// organization, store failure) must not reach the provider path.
		return nil, false
	}

	e.store.Begin(email)
	if err := e.provider.VerifyCredentials(ctx, email, secret); err != nil {
		if !errors.Is(err, identitydomain.ErrInvalidCredentials) {
			e.log.Error("verify credentials", zap.Error(err))
		}
		e.store.Clear(email)
		return nil, false
	}
	return e.store.Take(email)
}

// errNoDirectoryMatch reports that no active sub-user holds the presented
// credentials, so the provider may still claim the login.
var errNoDirectoryMatch = errors.New("no_directory_match")

func (e *establisher) loginSubUser(ctx context.Context, email, secret string) (domain.Session, error) {
	user, err := e.subusers.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, subuserdomain.ErrSubUserNotFound) {
			return nil, errNoDirectoryMatch
		}
		e.log.Error("sub-user lookup", zap.Error(err))
		return nil, err
	}
	if !e.subusers.VerifySecret(user, secret) {
		return nil, errNoDirectoryMatch
	}

	org, err := e.orgs.GetByID(ctx, user.OrgID)
	if err != nil {
		e.log.Error("sub-user organization lookup",
			zap.Int64("org_id", int64(user.OrgID)), zap.Error(err))
		return nil, err
	}

	if err := e.subusers.RecordLogin(ctx, user.ID, e.clk.Now()); err != nil {
		e.log.Warn("record sub-user login", zap.Error(err))
	}
	return domain.NewScopedSession(user, org), nil
}

func (e *establisher) Register(ctx context.Context, req domain.RegisterRequest) (domain.Session, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Secret == "" {
		return nil, domain.ErrRegistrationInvalid
	}

	identity, err := e.provider.CreateAccount(ctx, email, req.Secret)
	if err != nil {
		return nil, err
	}

	// Owner display name comes from the email local part, not the form.
	if _, err := e.orgs.Create(ctx, orgdomain.CreateOrganizationRequest{
		ID:    identity.ID,
		Name:  name,
		Email: identity.Email,
	}); err != nil {
		return nil, err
	}

	// The session comes out of the provider notification path, same as login.
	e.store.Begin(identity.Email)
	if err := e.provider.VerifyCredentials(ctx, identity.Email, req.Secret); err != nil {
		e.store.Clear(identity.Email)
		return nil, err
	}
	sess, ok := e.store.Take(identity.Email)
	if !ok {
		return nil, domain.ErrSessionRequired
	}
	return sess, nil
}

func (e *establisher) Logout(ctx context.Context, sess domain.Session) error {
	if sess == nil {
		return domain.ErrSessionRequired
	}
	e.store.Clear(sess.Email())
	if sess.IsAdmin() {
		return e.provider.SignOut(ctx)
	}
	return nil
}

// handleStateChange reconciles provider state into the session store. A nil
// identity is a sign-out (or provider startup) and needs no work here; the
// store is cleared by whichever path triggered it.
func (e *establisher) handleStateChange(ctx context.Context, identity *identitydomain.Identity) {
	if identity == nil {
		return
	}

	org, err := e.orgs.GetByID(ctx, identity.ID)
	if err != nil {
		e.log.Error("reconcile organization",
			zap.Int64("account_id", int64(identity.ID)), zap.Error(err))
		e.store.Clear(identity.Email)
		return
	}

	org, err = e.subs.CheckExpiry(ctx, org)
	if err != nil {
		e.log.Error("subscription expiry check",
			zap.Int64("org_id", int64(identity.ID)), zap.Error(err))
		e.store.Clear(identity.Email)
		return
	}
	if org.Tier == "" {
		org.Tier = orgdomain.TierFree
	}
	if strings.TrimSpace(org.DefaultTemplate) == "" {
		org.DefaultTemplate = e.defaults.Current().DocumentTemplate
	}

	e.store.Authenticate(identity.Email, domain.NewAdminSession(identity.ID, identity.Email, org))
}
