package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// Recovery turns panics into the standard INTERNAL_SERVER_ERROR envelope and logs the cause.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Value(c)),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Abort(c, appErrors.Internal(fmt.Errorf("panic: %v", recovered), "internal server error"))
	})
}
