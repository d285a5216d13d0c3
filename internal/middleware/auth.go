package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing the authenticated *models.User.
	ContextUserKey = "currentUser"
	// ContextClaimsKey is the gin context key storing the verified *models.JWTClaims.
	ContextClaimsKey = "currentClaims"
)

type authenticator interface {
	Authenticate(ctx context.Context, raw string) (*models.User, *models.JWTClaims, error)
}

// Authenticate protects routes by requiring a valid bearer token that belongs to an active user.
func Authenticate(auth authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			response.Abort(c, appErrors.ErrNoToken)
			return
		}

		scheme, token, _ := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if token == "" {
			response.Abort(c, appErrors.ErrNoToken)
			return
		}
		if !strings.EqualFold(scheme, "Bearer") {
			response.Abort(c, appErrors.Clone(appErrors.ErrInvalidToken, "authorization header must be a bearer token"))
			return
		}

		user, claims, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// CurrentUser returns the user attached by Authenticate, or nil.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// CurrentClaims returns the token claims attached by Authenticate, or nil.
func CurrentClaims(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}
