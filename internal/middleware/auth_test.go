package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

type stubAuthenticator struct {
	user  *models.User
	err   error
	token string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, raw string) (*models.User, *models.JWTClaims, error) {
	s.token = raw
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.user, &models.JWTClaims{UserID: s.user.ID}, nil
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error.Code
}

func protectedRouter(auth authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		user := CurrentUser(c)
		claims := CurrentClaims(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID, "claims": claims.UserID})
	})
	router.GET("/private", handlers...)
	return router
}

func TestAuthenticateHeaderHandling(t *testing.T) {
	auth := &stubAuthenticator{user: &models.User{ID: "u1", IsActive: true}}
	router := protectedRouter(auth)

	cases := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, "NO_TOKEN"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"bearer without token", "Bearer ", http.StatusUnauthorized, "NO_TOKEN"},
		{"token without scheme", "abc.def.ghi", http.StatusUnauthorized, "NO_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestAuthenticateAttachesUser(t *testing.T) {
	auth := &stubAuthenticator{user: &models.User{ID: "u1", IsActive: true}}
	router := protectedRouter(auth)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "bearer  tok-123")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok-123", auth.token)
	assert.JSONEq(t, `{"id":"u1","claims":"u1"}`, rec.Body.String())
}

func TestAuthenticatePropagatesServiceErrors(t *testing.T) {
	for _, want := range []*appErrors.Error{appErrors.ErrExpiredToken, appErrors.ErrInvalidUser, appErrors.ErrAuth} {
		router := protectedRouter(&stubAuthenticator{err: want})
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer tok")
		router.ServeHTTP(rec, req)

		assert.Equal(t, want.Status, rec.Code)
		assert.Equal(t, want.Code, errorCode(t, rec))
	}
}

func TestRequireAdmin(t *testing.T) {
	staff := protectedRouter(&stubAuthenticator{user: &models.User{ID: "u1", IsActive: true}}, RequireAdmin())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer tok")
	staff.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", errorCode(t, rec))

	admin := protectedRouter(&stubAuthenticator{user: &models.User{ID: "a1", IsAdmin: true, IsActive: true}}, RequireAdmin())
	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	gin.SetMode(gin.TestMode)
	bare := gin.New()
	bare.GET("/", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}
