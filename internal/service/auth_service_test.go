package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/repository"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type failingBlacklist struct{}

func (failingBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return errors.New("redis down")
}

func (failingBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return false, errors.New("redis down")
}

func newAuthFixture(t *testing.T) (*AuthService, *memUserRepo, *models.User) {
	t.Helper()
	user := staffUser("alice")
	user.PasswordHash = mustHash(t, "password1")
	repo := newMemUserRepo(user)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewAuthService(repo, repository.NewTokenBlacklistRepository(client), zap.NewNop(), AuthConfig{
		Secret:     "secret",
		Expiration: time.Hour,
		Issuer:     "school-office-api",
	})
	return svc, repo, user
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, _, user := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "ALICE@school.edu", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, user.ID, res.User.ID)

	authed, claims, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, user.ID, claims.Subject)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "", Password: "password1"})
	assertCode(t, err, appErrors.ErrMissingCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "alice@school.edu", Password: "wrong"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@school.edu", Password: "password1"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)

	repo.users["alice"].IsActive = false
	_, err = svc.Login(ctx, models.LoginRequest{Email: "alice@school.edu", Password: "password1"})
	assertCode(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceExpiredToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@school.edu", Password: "password1"})
	require.NoError(t, err)

	svc.now = time.Now
	_, _, err = svc.Authenticate(context.Background(), res.Token)
	assertCode(t, err, appErrors.ErrExpiredToken)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.ParseToken("not-a-jwt")
	assertCode(t, err, appErrors.ErrInvalidToken)

	claims := &models.JWTClaims{UserID: "alice", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "school-office-api",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(forged)
	assertCode(t, err, appErrors.ErrInvalidToken)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ParseToken(wrongAlg)
	assertCode(t, err, appErrors.ErrInvalidToken)
}

func TestAuthServiceInactiveUserRejected(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@school.edu", Password: "password1"})
	require.NoError(t, err)

	repo.users["alice"].IsActive = false
	_, _, err = svc.Authenticate(context.Background(), res.Token)
	assertCode(t, err, appErrors.ErrInvalidUser)

	delete(repo.users, "alice")
	_, _, err = svc.Authenticate(context.Background(), res.Token)
	assertCode(t, err, appErrors.ErrInvalidUser)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	res, err := svc.Login(ctx, models.LoginRequest{Email: "alice@school.edu", Password: "password1"})
	require.NoError(t, err)

	_, claims, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, _, err = svc.Authenticate(ctx, res.Token)
	assertCode(t, err, appErrors.ErrInvalidToken)
}

func TestAuthServiceBlacklistOutage(t *testing.T) {
	user := staffUser("alice")
	user.PasswordHash = mustHash(t, "password1")
	svc := NewAuthService(newMemUserRepo(user), failingBlacklist{}, zap.NewNop(), AuthConfig{Secret: "secret", Expiration: time.Hour})

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@school.edu", Password: "password1"})
	require.NoError(t, err)
	_, _, err = svc.Authenticate(context.Background(), res.Token)
	assertCode(t, err, appErrors.ErrAuth)
}

func TestAuthServiceMe(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)

	profile, err := svc.Me(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@school.edu", profile.Email)

	repo.users["alice"].IsActive = false
	_, err = svc.Me(context.Background(), "alice")
	assertCode(t, err, appErrors.ErrUserNotFound)
}
