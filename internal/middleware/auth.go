package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/auth"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
)

// AuthMiddleware validates the bearer token and stores the caller's id and role.
func AuthMiddleware(secret []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("Rejected token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		userID, _ := claims.UserID()

		c.Set(UserIDKey, userID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole lets through only callers whose role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
		c.Abort()
	}
}

// CurrentUser returns the authenticated caller.
func CurrentUser(c *gin.Context) (uuid.UUID, string, bool) {
	raw, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, "", false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	return id, c.GetString(RoleKey), true
}
