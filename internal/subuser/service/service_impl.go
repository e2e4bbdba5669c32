package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/facture/internal/identity/password"
	"github.com/smallbiznis/facture/internal/subuser/domain"
	"github.com/smallbiznis/facture/pkg/db"
	"go.uber.org/zap"
)

const minSecretLength = 6

type service struct {
	log      *zap.Logger
	repo     domain.Repository
	verifier password.Verifier
	node     *snowflake.Node
}

func NewService(log *zap.Logger, repo domain.Repository, verifier password.Verifier, node *snowflake.Node) domain.Service {
	return &service{
		log:      log.Named("subuser.service"),
		repo:     repo,
		verifier: verifier,
		node:     node,
	}
}

// validate applies the edit-form rules in their fixed order. The first
// failure wins and nothing is written.
func validate(name, email, secret string, perms domain.PermissionSet) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || secret == "" {
		return domain.ErrMissingRequiredFields
	}
	if len(secret) < minSecretLength {
		return domain.ErrSecretTooShort
	}
	if !perms.Any() {
		return domain.ErrNoPermissions
	}
	return nil
}

func (s *service) Create(ctx context.Context, req domain.CreateRequest) (*domain.SubUser, error) {
	if err := validate(req.Name, req.Email, req.Secret, req.Permissions); err != nil {
		return nil, err
	}

	hash, err := s.verifier.Hash(req.Secret)
	if err != nil {
		return nil, err
	}

	user := &domain.SubUser{
		ID:          s.node.Generate(),
		OrgID:       req.OrgID,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		SecretHash:  hash,
		Permissions: req.Permissions,
		Status:      domain.StatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSubUserExists
		}
		s.log.Error("create sub-user", zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (*domain.SubUser, error) {
	if err := validate(req.Name, req.Email, req.Secret, req.Permissions); err != nil {
		return nil, err
	}
	if req.Status != "" && req.Status != domain.StatusActive && req.Status != domain.StatusInactive {
		return nil, domain.ErrInvalidStatus
	}

	hash, err := s.verifier.Hash(req.Secret)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"name":                     strings.TrimSpace(req.Name),
		"email":                    strings.ToLower(strings.TrimSpace(req.Email)),
		"secret_hash":              hash,
		"perm_dashboard":           req.Permissions.Dashboard,
		"perm_invoices":            req.Permissions.Invoices,
		"perm_quotes":              req.Permissions.Quotes,
		"perm_clients":             req.Permissions.Clients,
		"perm_products":            req.Permissions.Products,
		"perm_suppliers":           req.Permissions.Suppliers,
		"perm_stock_management":    req.Permissions.StockManagement,
		"perm_supplier_management": req.Permissions.SupplierManagement,
		"perm_hr_management":       req.Permissions.HRManagement,
		"perm_reports":             req.Permissions.Reports,
		"perm_settings":            req.Permissions.Settings,
	}
	if req.Status != "" {
		fields["status"] = req.Status
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSubUserExists
		}
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) SetStatus(ctx context.Context, id snowflake.ID, status domain.Status) error {
	if status != domain.StatusActive && status != domain.StatusInactive {
		return domain.ErrInvalidStatus
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{"status": status})
}

func (s *service) SelectAllPermissions(ctx context.Context, id snowflake.ID) (*domain.SubUser, error) {
	var perms domain.PermissionSet
	perms.SelectAll()
	return s.writePermissions(ctx, id, perms)
}

func (s *service) ResetPermissions(ctx context.Context, id snowflake.ID) (*domain.SubUser, error) {
	var perms domain.PermissionSet
	perms.Reset()
	return s.writePermissions(ctx, id, perms)
}

func (s *service) writePermissions(ctx context.Context, id snowflake.ID, perms domain.PermissionSet) (*domain.SubUser, error) {
	fields := map[string]any{
		"perm_dashboard":           perms.Dashboard,
		"perm_invoices":            perms.Invoices,
		"perm_quotes":              perms.Quotes,
		"perm_clients":             perms.Clients,
		"perm_products":            perms.Products,
		"perm_suppliers":           perms.Suppliers,
		"perm_stock_management":    perms.StockManagement,
		"perm_supplier_management": perms.SupplierManagement,
		"perm_hr_management":       perms.HRManagement,
		"perm_reports":             perms.Reports,
		"perm_settings":            perms.Settings,
	}
	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, orgID snowflake.ID) ([]domain.SubUser, error) {
	return s.repo.ListByOrg(ctx, orgID)
}

func (s *service) GetByID(ctx context.Context, id snowflake.ID) (*domain.SubUser, error) {
	return s.repo.FindByID(ctx, id)
}

// FindActiveByEmail resolves the sub-user record consulted during session
// establishment. Inactive accounts are invisible here on purpose.
func (s *service) FindActiveByEmail(ctx context.Context, email string) (*domain.SubUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.repo.FindByEmailAndStatus(ctx, email, domain.StatusActive)
}

func (s *service) RecordLogin(ctx context.Context, id snowflake.ID, at time.Time) error {
	return s.repo.UpdateFields(ctx, id, map[string]any{"last_login_at": at})
}

func (s *service) VerifySecret(user *domain.SubUser, secret string) bool {
	if user == nil {
		return false
	}
	return s.verifier.Verify(secret, user.SecretHash)
}
