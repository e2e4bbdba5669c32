package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// StateHandler receives the current identity after a sign-in, or nil after a
// sign-out. Handlers also fire once with nil when the provider starts.
type StateHandler func(ctx context.Context, identity *Identity)

// Provider is the identity backend the session establisher delegates to for
// owner-level accounts.
type Provider interface {
	// VerifyCredentials checks email and secret. On success the provider
	// notifies registered state handlers with the identity before returning.
	VerifyCredentials(ctx context.Context, email, secret string) error
	CreateAccount(ctx context.Context, email, secret string) (*Identity, error)
	// SignOut notifies registered state handlers with a nil identity.
	SignOut(ctx context.Context) error
	OnStateChange(handler StateHandler)
}

type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountExists      = errors.New("account_exists")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrWeakSecret         = errors.New("weak_secret")
)
