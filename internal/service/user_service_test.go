package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-office-api/internal/dto"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

func init() {
	passwordCost = bcrypt.MinCost
}

type memUserRepo struct {
	users     map[string]*models.User
	createErr error
	updateErr error
	listErr   error
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	repo := &memUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *memUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []models.User
	for _, u := range m.users {
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if filter.Offset >= len(out) {
		return []models.User{}, total, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, total, nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := m.FindByEmail(ctx, email)
	if err != nil || !u.IsActive {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *memUserRepo) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) CountAdmins(ctx context.Context) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.IsAdmin && u.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *memUserRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for _, u := range m.users {
		if u.IsActive {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if user.ID == "" {
		user.ID = "u-" + user.Email
	}
	user.CreatedAt = time.Now()
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id string, hash models.PasswordHash) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUserRepo) Deactivate(ctx context.Context, id string) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.IsActive = false
	return nil
}

func mustHash(t *testing.T, plain models.PlainPassword) models.PasswordHash {
	t.Helper()
	hash, err := hashPassword(plain)
	require.NoError(t, err)
	return hash
}

func adminUser() *models.User {
	return &models.User{ID: "admin", Email: "admin@school.edu", Name: "Admin", IsAdmin: true, IsActive: true}
}

func staffUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@school.edu", Name: strings.ToUpper(id), IsActive: true}
}

func assertCode(t *testing.T, err error, want *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected application error, got %v", err)
	assert.Equal(t, want.Code, appErr.Code)
	assert.Equal(t, want.Status, appErr.Status)
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMemUserRepo(adminUser())
	svc := NewUserService(repo, nil, zap.NewNop())
	phone := " 010-1111-2222 "

	profile, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Email:    " New.Teacher@School.edu ",
		Password: "longenough",
		Name:     "New Teacher",
		Phone:    &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.teacher@school.edu", profile.Email)
	assert.True(t, profile.IsActive)
	require.NotNil(t, profile.Phone)
	assert.Equal(t, "010-1111-2222", *profile.Phone)

	stored := repo.users[profile.ID]
	assert.NotEqual(t, models.PasswordHash("longenough"), stored.PasswordHash)
	assert.True(t, verifyPassword(stored.PasswordHash, "longenough"))
}

func TestUserServiceCreateValidation(t *testing.T) {
	svc := NewUserService(newMemUserRepo(adminUser()), nil, zap.NewNop())

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{Email: "a@school.edu", Password: "short", Name: "A"})
	assertCode(t, err, appErrors.ErrInvalidPassword)

	_, err = svc.Create(context.Background(), dto.CreateUserRequest{Email: "a@school.edu", Password: "longenough"})
	assertCode(t, err, appErrors.ErrMissingRequiredFields)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "name", appErr.Details[0].Field)

	_, err = svc.Create(context.Background(), dto.CreateUserRequest{Email: "ADMIN@school.edu", Password: "longenough", Name: "Dup"})
	assertCode(t, err, appErrors.ErrEmailAlreadyExists)
}

func TestUserServiceListPagination(t *testing.T) {
	repo := newMemUserRepo(adminUser(), staffUser("a"), staffUser("b"))
	svc := NewUserService(repo, nil, zap.NewNop())

	users, page, err := svc.List(context.Background(), models.UserFilter{Page: models.Page{Limit: 2}})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, models.Pagination{Total: 3, Limit: 2, Offset: 0, HasMore: true}, page)

	_, page, err = svc.List(context.Background(), models.UserFilter{Page: models.Page{Limit: 500, Offset: -4}})
	require.NoError(t, err)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.False(t, page.HasMore)
}

func TestUserServiceGetSelfOrAdmin(t *testing.T) {
	alice, bob := staffUser("alice"), staffUser("bob")
	svc := NewUserService(newMemUserRepo(adminUser(), alice, bob), nil, zap.NewNop())

	_, err := svc.Get(context.Background(), alice, "alice")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), alice, "bob")
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	_, err = svc.Get(context.Background(), adminUser(), "bob")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), alice, "ghost")
	assertCode(t, err, appErrors.ErrUserNotFound)
}

func TestUserServiceUpdateRules(t *testing.T) {
	alice, bob := staffUser("alice"), staffUser("bob")
	repo := newMemUserRepo(adminUser(), alice, bob)
	svc := NewUserService(repo, nil, zap.NewNop())
	name := "Alice Kim"
	yes := true
	no := false
	taken := "bob@school.edu"

	profile, err := svc.Update(context.Background(), alice, "alice", dto.UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Kim", profile.Name)

	_, err = svc.Update(context.Background(), alice, "alice", dto.UpdateUserRequest{IsAdmin: &yes})
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	_, err = svc.Update(context.Background(), alice, "bob", dto.UpdateUserRequest{Name: &name})
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	_, err = svc.Update(context.Background(), alice, "alice", dto.UpdateUserRequest{Email: &taken})
	assertCode(t, err, appErrors.ErrEmailAlreadyExists)

	admin := adminUser()
	_, err = svc.Update(context.Background(), admin, "admin", dto.UpdateUserRequest{IsActive: &no})
	assertCode(t, err, appErrors.ErrCannotDeactivateSelf)

	profile, err = svc.Update(context.Background(), admin, "bob", dto.UpdateUserRequest{IsAdmin: &yes})
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)
}

func TestUserServiceUpdateOrderNotFoundBeforeForbidden(t *testing.T) {
	alice := staffUser("alice")
	svc := NewUserService(newMemUserRepo(alice), nil, zap.NewNop())
	blank := "   "

	_, err := svc.Update(context.Background(), alice, "ghost", dto.UpdateUserRequest{Name: &blank})
	assertCode(t, err, appErrors.ErrUserNotFound)
}

func TestUserServiceChangePassword(t *testing.T) {
	alice := staffUser("alice")
	alice.PasswordHash = mustHash(t, "oldpassword")
	repo := newMemUserRepo(adminUser(), alice)
	svc := NewUserService(repo, nil, zap.NewNop())
	ctx := context.Background()

	err := svc.ChangePassword(ctx, alice, "alice", dto.ChangePasswordRequest{CurrentPassword: "oldpassword"})
	assertCode(t, err, appErrors.ErrMissingPasswords)

	err = svc.ChangePassword(ctx, alice, "alice", dto.ChangePasswordRequest{CurrentPassword: "oldpassword", NewPassword: "short"})
	assertCode(t, err, appErrors.ErrInvalidNewPassword)

	err = svc.ChangePassword(ctx, alice, "alice", dto.ChangePasswordRequest{CurrentPassword: "wrongpassword", NewPassword: "newpassword"})
	assertCode(t, err, appErrors.ErrInvalidCurrentPass)

	err = svc.ChangePassword(ctx, adminUser(), "alice", dto.ChangePasswordRequest{CurrentPassword: "oldpassword", NewPassword: "newpassword"})
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	require.NoError(t, svc.ChangePassword(ctx, alice, "alice", dto.ChangePasswordRequest{CurrentPassword: "oldpassword", NewPassword: "newpassword"}))

	auth := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{Secret: "secret", Expiration: time.Hour})
	_, err = auth.Login(ctx, models.LoginRequest{Email: "alice@school.edu", Password: "oldpassword"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)
	_, err = auth.Login(ctx, models.LoginRequest{Email: "alice@school.edu", Password: "newpassword"})
	require.NoError(t, err)
}

func TestUserServiceDeactivate(t *testing.T) {
	admin, alice := adminUser(), staffUser("alice")
	repo := newMemUserRepo(admin, alice)
	svc := NewUserService(repo, nil, zap.NewNop())
	ctx := context.Background()

	err := svc.Deactivate(ctx, admin, "admin")
	assertCode(t, err, appErrors.ErrCannotDeactivateSelf)
	assert.True(t, repo.users["admin"].IsActive)

	err = svc.Deactivate(ctx, alice, "admin")
	assertCode(t, err, appErrors.ErrInsufficientPermissions)

	err = svc.Deactivate(ctx, admin, "ghost")
	assertCode(t, err, appErrors.ErrUserNotFound)

	require.NoError(t, svc.Deactivate(ctx, admin, "alice"))
	assert.False(t, repo.users["alice"].IsActive)
}
