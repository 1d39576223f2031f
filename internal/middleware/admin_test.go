package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
)

type sessionStub struct {
	valid string
}

func (s *sessionStub) ValidateSession(token string) error {
	if token == s.valid {
		return nil
	}
	return appErrors.Clone(appErrors.ErrUnauthorized, "invalid session token")
}

func adminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/requests", AdminAuth(&sessionStub{valid: "good-token"}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestAdminAuthMissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/requests", nil)
	adminRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthMalformedHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/requests", nil)
	req.Header.Set("Authorization", "Token good-token")
	adminRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthInvalidToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	adminRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthValidToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	adminRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
