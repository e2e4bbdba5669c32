package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	OrgID       snowflake.ID
	Name        string
	Email       string
	Secret      string
	Permissions PermissionSet
}

// UpdateRequest carries the full mutable field set of the edit form. The
// secret is re-submitted on every edit and re-hashed on save.
type UpdateRequest struct {
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Secret      string        `json:"secret"`
	Permissions PermissionSet `json:"permissions"`
	Status      Status        `json:"status"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*SubUser, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (*SubUser, error)
	SetStatus(ctx context.Context, id snowflake.ID, status Status) error
	// SelectAllPermissions turns every area flag on.
	SelectAllPermissions(ctx context.Context, id snowflake.ID) (*SubUser, error)
	// ResetPermissions turns every area flag off except dashboard.
	ResetPermissions(ctx context.Context, id snowflake.ID) (*SubUser, error)
	List(ctx context.Context, orgID snowflake.ID) ([]SubUser, error)
	GetByID(ctx context.Context, id snowflake.ID) (*SubUser, error)
	FindActiveByEmail(ctx context.Context, email string) (*SubUser, error)
	RecordLogin(ctx context.Context, id snowflake.ID, at time.Time) error
	VerifySecret(user *SubUser, secret string) bool
}

type Repository interface {
	Create(ctx context.Context, user *SubUser) error
	FindByID(ctx context.Context, id snowflake.ID) (*SubUser, error)
	FindByEmailAndStatus(ctx context.Context, email string, status Status) (*SubUser, error)
	ListByOrg(ctx context.Context, orgID snowflake.ID) ([]SubUser, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
}

var (
	ErrSubUserNotFound = errors.New("sub_user_not_found")
	ErrSubUserExists   = errors.New("sub_user_exists")
	ErrInvalidStatus   = errors.New("invalid_status")

	// Edit-form validation failures, checked in order. The first one aborts
	// the save before any store write.
	ErrMissingRequiredFields = errors.New("name, email and secret are required")
	ErrSecretTooShort        = errors.New("secret must be at least 6 characters")
	ErrNoPermissions         = errors.New("at least one permission must be enabled")
)
