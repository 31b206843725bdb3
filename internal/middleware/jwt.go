package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumiere-atelier/backend/internal/auth"
	"github.com/lumiere-atelier/backend/pkg/response"
)

// Context keys for the authenticated user, shared with the auth package so
// its handlers can read them without importing this one.
const (
	ContextUserID    = auth.ContextUserID
	ContextUserRole  = auth.ContextUserRole
	ContextUserEmail = auth.ContextUserEmail
)

// JWT returns a middleware that validates the session token and sets user
// claims in context. The token is taken from the Authorization header
// (Bearer) or, failing that, from the session cookie.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(auth.SessionCookieName); err == nil {
				token = cookie
			}
		}
		if token == "" {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
