// Package middleware provides the gin middleware for caller identification,
// admin gating, and request logging.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mvsouza/cakefund/internal/storage"
)

const (
	// UserIDHeader carries the caller identity set by the fronting proxy.
	UserIDHeader = "X-User-ID"

	userIDKey  = "user_id"
	callerKey  = "caller"
	isAdminKey = "is_admin"
)

// GetUserID returns the identified caller's user ID, or empty pre-identity.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// RequireIdentity resolves the X-User-ID header against the user store and
// attaches the caller to the request context. Unknown or missing callers are
// rejected before any handler runs.
func RequireIdentity(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserIDHeader + " header"})
			return
		}

		user, err := store.GetUser(c.Request.Context(), userID)
		if errors.Is(err, storage.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve caller"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user is deactivated"})
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(callerKey, user)
		c.Set(isAdminKey, user.IsAdmin)
		c.Next()
	}
}

// RequireAdmin gates administrative endpoints. It must run after RequireIdentity.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(isAdminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}
