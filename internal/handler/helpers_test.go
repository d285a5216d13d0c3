package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/middleware"
	"github.com/noah-isme/school-office-api/internal/models"
)

type responseEnvelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// serve runs h with user attached the way middleware.Authenticate would.
func serve(user *models.User, method, target string, body io.Reader, h gin.HandlerFunc, params ...gin.Param) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, body)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Params = params
	if user != nil {
		c.Set(middleware.ContextUserKey, user)
		c.Set(middleware.ContextClaimsKey, &models.JWTClaims{UserID: user.ID})
	}
	h(c)
	return rec
}

func idParam(id string) gin.Param {
	return gin.Param{Key: "id", Value: id}
}

var staff = &models.User{ID: "u1", Email: "u1@school.edu", Name: "U1", IsActive: true}

func statusOf(rec *httptest.ResponseRecorder) int {
	if rec.Code == 0 {
		return http.StatusOK
	}
	return rec.Code
}
