package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/port-douala/meteomarine-api/pkg/errors"
	"github.com/port-douala/meteomarine-api/pkg/response"
)

// SessionValidator checks an admin session token.
type SessionValidator interface {
	ValidateSession(token string) error
}

// AdminAuth protects the review endpoints with a bearer session token.
func AdminAuth(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		if err := sessions.ValidateSession(parts[1]); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}
