package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var bootstrapConfig = BootstrapConfig{Email: " Root@School.edu ", Password: "changeme123", Name: "Root"}

func TestEnsureAdminCreatesFirstAdministrator(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewBootstrapService(repo, zap.NewNop(), bootstrapConfig)

	created, err := svc.EnsureAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := repo.FindByEmail(context.Background(), "root@school.edu")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.IsActive)
	assert.Equal(t, "root@school.edu", admin.Email)
	assert.True(t, verifyPassword(admin.PasswordHash, "changeme123"))

	created, err = svc.EnsureAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.users, 1)
}

func TestEnsureAdminPromotesExistingAccount(t *testing.T) {
	existing := staffUser("root")
	existing.IsActive = false
	repo := newMemUserRepo(existing)
	svc := NewBootstrapService(repo, zap.NewNop(), bootstrapConfig)

	created, err := svc.EnsureAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Len(t, repo.users, 1)
	assert.True(t, repo.users["root"].IsAdmin)
	assert.True(t, repo.users["root"].IsActive)
}

func TestEnsureAdminSkipsWhenAdminExistsOrUnconfigured(t *testing.T) {
	repo := newMemUserRepo(adminUser())
	created, err := NewBootstrapService(repo, zap.NewNop(), bootstrapConfig).EnsureAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.users, 1)

	empty := newMemUserRepo()
	created, err = NewBootstrapService(empty, zap.NewNop(), BootstrapConfig{}).EnsureAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, empty.users)
}
