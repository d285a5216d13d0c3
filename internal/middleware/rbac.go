package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// RequireAdmin only lets administrators through. It must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !user.IsAdmin {
			response.Abort(c, appErrors.Clone(appErrors.ErrInsufficientPermissions, "administrator access required"))
			return
		}
		c.Next()
	}
}
