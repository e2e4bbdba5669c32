package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/facture/internal/identity/password"
	"github.com/smallbiznis/facture/internal/subuser/domain"
	"github.com/smallbiznis/facture/internal/subuser/repository"
	"github.com/smallbiznis/facture/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSubUserTest(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.SubUser{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(zap.NewNop(), repository.NewRepository(conn), password.NewVerifier(), node)
	return svc, conn
}

func allPerms() domain.PermissionSet {
	var perms domain.PermissionSet
	perms.SelectAll()
	return perms
}

func TestCreateSubUser(t *testing.T) {
	svc, _ := setupSubUserTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateRequest{
		OrgID:       42,
		Name:        "Alice",
		Email:       "Alice@Example.com",
		Secret:      "s3cret-long",
		Permissions: allPerms(),
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, domain.StatusActive, user.Status)
	assert.NotEqual(t, "s3cret-long", user.SecretHash)
	assert.True(t, svc.VerifySecret(user, "s3cret-long"))
	assert.False(t, svc.VerifySecret(user, "wrong"))
}

func TestCreateSubUserDuplicateEmail(t *testing.T) {
	svc, _ := setupSubUserTest(t)
	ctx := context.Background()

	req := domain.CreateRequest{
		OrgID:       42,
		Name:        "Alice",
		Email:       "alice@example.com",
		Secret:      "s3cret-long",
		Permissions: allPerms(),
	}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrSubUserExists)
}

func TestUpdateValidationOrder(t *testing.T) {
	svc, conn := setupSubUserTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateRequest{
		OrgID:       42,
		Name:        "Bob",
		Email:       "bob@example.com",
		Secret:      "original-secret",
		Permissions: allPerms(),
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		req  domain.UpdateRequest
		want error
	}{
		{
			name: "missing name",
			req:  domain.UpdateRequest{Name: " ", Email: "bob@example.com", Secret: "long-enough", Permissions: allPerms()},
			want: domain.ErrMissingRequiredFields,
		},
		{
			name: "missing email",
			req:  domain.UpdateRequest{Name: "Bob", Email: "", Secret: "long-enough", Permissions: allPerms()},
			want: domain.ErrMissingRequiredFields,
		},
		{
			name: "missing secret",
			req:  domain.UpdateRequest{Name: "Bob", Email: "bob@example.com", Secret: "", Permissions: allPerms()},
			want: domain.ErrMissingRequiredFields,
		},
		{
			name: "short secret",
			req:  domain.UpdateRequest{Name: "Bob", Email: "bob@example.com", Secret: "12345", Permissions: allPerms()},
			want: domain.ErrSecretTooShort,
		},
		{
			name: "no permissions",
			req:  domain.UpdateRequest{Name: "Bob", Email: "bob@example.com", Secret: "long-enough", Permissions: domain.PermissionSet{}},
			want: domain.ErrNoPermissions,
		},
		{
			// An empty secret fails the required-fields check before the
			// length check gets a chance.
			name: "missing fields win over length",
			req:  domain.UpdateRequest{Name: "", Email: "", Secret: "", Permissions: domain.PermissionSet{}},
			want: domain.ErrMissingRequiredFields,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Update(ctx, user.ID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// No failed attempt may have written anything.
	var stored domain.SubUser
	require.NoError(t, conn.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "Bob", stored.Name)
	assert.Equal(t, "bob@example.com", stored.Email)
	assert.True(t, svc.VerifySecret(&stored, "original-secret"))
}

func TestUpdateRehashesSecret(t *testing.T) {
	svc, _ := setupSubUserTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateRequest{
		OrgID:       42,
		Name:        "Bob",
		Email:       "bob@example.com",
		Secret:      "original-secret",
		Permissions: allPerms(),
	})
	require.NoError(t, err)

	perms := domain.PermissionSet{Dashboard: true, Invoices: true}
	updated, err := svc.Update(ctx, user.ID, domain.UpdateRequest{
		Name:        "Robert",
		Email:       "robert@example.com",
		Secret:      "replacement-secret",
		Permissions: perms,
		Status:      domain.StatusInactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Robert", updated.Name)
	assert.Equal(t, "robert@example.com", updated.Email)
	assert.Equal(t, domain.StatusInactive, updated.Status)
	assert.Equal(t, perms, updated.Permissions)
	assert.False(t, svc.VerifySecret(updated, "original-secret"))
	assert.True(t, svc.VerifySecret(updated, "replacement-secret"))
}

func TestUpdateUnknownSubUser(t *testing.T) {
	svc, _ := setupSubUserTest(t)

	_, err := svc.Update(context.Background(), 999, domain.UpdateRequest{
		Name:        "Ghost",
		Email:       "ghost@example.com",
		Secret:      "long-enough",
		Permissions: allPerms(),
	})
	assert.ErrorIs(t, err, domain.ErrSubUserNotFound)
}

func TestSetStatus(t *testing.T) {
	svc, _ := setupSubUserTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateRequest{
		OrgID:       42,
		Name:        "Carol",
		Email:       "carol@example.com",
		Secret:      "s3cret-long",
		Permissions: allPerms(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, user.ID, domain.StatusInactive))

	_, err = svc.FindActiveByEmail(ctx, "carol@example.com")
	assert.ErrorIs(t, err, domain.ErrSubUserNotFound)

	require.NoError(t, svc.SetStatus(ctx, user.ID, domain.StatusActive))
	found, err := svc.FindActiveByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	assert.ErrorIs(t, svc.SetStatus(ctx, user.ID, domain.Status("paused")), domain.ErrInvalidStatus)
}

func TestBulkPermissionActions(t *testing.T) {
	svc, _ := setupSubUserTest(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, domain.CreateRequest{
		OrgID:       42,
		Name:        "Dave",
		Email:       "dave@example.com",
		Secret:      "s3cret-long",
		Permissions: domain.PermissionSet{Reports: true},
	})
	require.NoError(t, err)

	updated, err := svc.SelectAllPermissions(ctx, user.ID)
	require.NoError(t, err)
	for _, area := range domain.Areas() {
		assert.True(t, updated.Permissions.Allows(area))
	}

	updated, err = svc.ResetPermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.Permissions.Dashboard)
	assert.False(t, updated.Permissions.Reports)
	assert.True(t, updated.Permissions.Any())
}

func TestListByOrg(t *testing.T) {
	svc, _ := setupSubUserTest(t)
	ctx := context.Background()

	for _, email := range []string{"one@example.com", "two@example.com"} {
		_, err := svc.Create(ctx, domain.CreateRequest{
			OrgID:       7,
			Name:        "User",
			Email:       email,
			Secret:      "s3cret-long",
			Permissions: allPerms(),
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, domain.CreateRequest{
		OrgID:       8,
		Name:        "Other",
		Email:       "other@example.com",
		Secret:      "s3cret-long",
		Permissions: allPerms(),
	})
	require.NoError(t, err)

	users, err := svc.List(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
