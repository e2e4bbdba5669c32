package domain

import (
	"context"
	"errors"
)

// RegisterRequest creates an owner account and its organization in one step.
type RegisterRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// Establisher decides which kind of session a credential pair earns. Login
// reports failure as a plain false: callers only ever learn that the
// credentials did not produce a session, never why.
type Establisher interface {
	Login(ctx context.Context, email, secret string) (Session, bool)
	Register(ctx context.Context, req RegisterRequest) (Session, error)
	Logout(ctx context.Context, sess Session) error
}

var (
	ErrRegistrationInvalid = errors.New("registration_invalid")
	ErrSessionRequired     = errors.New("session_required")
)
