package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/netsentinel/console/backend/internal/services"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
	EmailKey  = "email"
)

// AuthRequired validates the session token from the auth cookie or bearer
// header and stores the caller's identity in the request context.
func AuthRequired(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		if cookie, err := c.Cookie("auth_token"); err == nil && cookie != "" {
			tokenString = cookie
		}
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Set(EmailKey, claims.Subject)
		c.Next()
	}
}

// ActorEmail returns the authenticated caller's email, or "unknown" outside
// an authenticated context.
func ActorEmail(c *gin.Context) string {
	if v, ok := c.Get(EmailKey); ok {
		if email, ok := v.(string); ok && email != "" {
			return email
		}
	}
	return "unknown"
}
