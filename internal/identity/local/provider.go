// Package local implements the identity provider against the application
// database.
package local

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/facture/internal/identity/domain"
	"github.com/smallbiznis/facture/internal/identity/password"
	"go.uber.org/zap"
)

const minSecretLength = 6

// Provider verifies credentials against identity_accounts and fans state
// changes out to registered handlers. Notifications are delivered
// synchronously in the caller's goroutine, so by the time VerifyCredentials
// returns, handlers have already observed the sign-in.
type Provider struct {
	log      *zap.Logger
	repo     domain.Repository
	verifier password.Verifier
	genID    *snowflake.Node

	mu       sync.Mutex
	handlers []domain.StateHandler
}

func NewProvider(log *zap.Logger, repo domain.Repository, verifier password.Verifier, genID *snowflake.Node) *Provider {
	return &Provider{
		log:      log.Named("identity.local"),
		repo:     repo,
		verifier: verifier,
		genID:    genID,
	}
}

func (p *Provider) OnStateChange(handler domain.StateHandler) {
	if handler == nil {
		return
	}
	p.mu.Lock()
	p.handlers = append(p.handlers, handler)
	p.mu.Unlock()
}

// Start delivers the initial nil notification. There is no persisted provider
// session on the server, so startup always reports signed-out.
func (p *Provider) Start(ctx context.Context) {
	p.notify(ctx, nil)
}

func (p *Provider) VerifyCredentials(ctx context.Context, email, secret string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return domain.ErrInvalidCredentials
	}

	account, err := p.repo.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.ErrInvalidCredentials
		}
		return err
	}

	if !p.verifier.Verify(secret, account.SecretHash) {
		return domain.ErrInvalidCredentials
	}

	p.notify(ctx, &domain.Identity{ID: account.ID, Email: account.Email})
	return nil
}

func (p *Provider) CreateAccount(ctx context.Context, email, secret string) (*domain.Identity, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(secret)) < minSecretLength {
		return nil, domain.ErrWeakSecret
	}

	if _, err := p.repo.FindByEmail(ctx, normalized); err == nil {
		return nil, domain.ErrAccountExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	hashed, err := p.verifier.Hash(secret)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:         p.genID.Generate(),
		ExternalID: uuid.NewString(),
		Email:      normalized,
		SecretHash: hashed,
	}
	if err := p.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	p.log.Info("identity account created", zap.String("account_id", account.ID.String()))
	return &domain.Identity{ID: account.ID, Email: account.Email}, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.notify(ctx, nil)
	return nil
}

func (p *Provider) notify(ctx context.Context, identity *domain.Identity) {
	p.mu.Lock()
	handlers := make([]domain.StateHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.mu.Unlock()

	for _, handler := range handlers {
		handler(ctx, identity)
	}
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

var _ domain.Provider = (*Provider)(nil)
