package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// multipartOverhead covers boundaries and the small form fields sent next to the file part.
const multipartOverhead int64 = 1 << 20

// BodyLimit rejects requests whose declared length exceeds limit plus multipart overhead and caps
// the body reader for requests that do not declare one.
func BodyLimit(limit int64) gin.HandlerFunc {
	max := limit + multipartOverhead
	tooLarge := appErrors.New(appErrors.ErrFileTooLarge.Code, http.StatusRequestEntityTooLarge, appErrors.ErrFileTooLarge.Message)
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			response.Abort(c, tooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
