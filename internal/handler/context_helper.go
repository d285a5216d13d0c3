package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/middleware"
	"github.com/noah-isme/school-office-api/internal/models"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
)

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// pageFromQuery reads limit and offset. Unparseable values fall back to the service defaults.
func pageFromQuery(c *gin.Context) models.Page {
	var page models.Page
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		page.Offset = offset
	}
	return page
}

func queryBool(c *gin.Context, key string) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return false, false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return value, true
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request body")
}
