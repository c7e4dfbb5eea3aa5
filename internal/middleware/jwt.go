package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openbook-dev/openbook-api/internal/service"
	appErrors "github.com/openbook-dev/openbook-api/pkg/errors"
	"github.com/openbook-dev/openbook-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT protects host and admin routes by requiring a valid access token.
// Attendee-facing routes (slots, bookings) stay public; attendees
// authenticate per booking with the manage token instead.
func JWT(authService *service.AuthService) gin.HandlerFunc {
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

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
