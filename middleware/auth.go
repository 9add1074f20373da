package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Identity is resolved upstream by the gateway; this service only reads
// the opaque ids it forwards. X-User-ID marks an authenticated user,
// X-Session-ID a guest browsing session.
const (
	UserContextKey    = "userID"
	GuestContextKey   = "isGuest"
	AdminContextKey   = "adminID"
	headerUserID      = "X-User-ID"
	headerSessionID   = "X-Session-ID"
	headerAdminID     = "X-Admin-ID"
)

// Identity accepts either a user or a guest session and stores the
// owner id in the request context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := c.GetHeader(headerUserID); userID != "" {
			c.Set(UserContextKey, userID)
			c.Set(GuestContextKey, false)
			c.Next()
			return
		}
		if sessionID := c.GetHeader(headerSessionID); sessionID != "" {
			c.Set(UserContextKey, sessionID)
			c.Set(GuestContextKey, true)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
}

// RequireUser rejects guests; used for merge and order history.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserContextKey, userID)
		c.Set(GuestContextKey, false)
		c.Next()
	}
}

// RequireAdmin guards the back-office routes.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetHeader(headerAdminID)
		if adminID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Set(AdminContextKey, adminID)
		c.Next()
	}
}

// Owner returns the cart/order owner id set by Identity or RequireUser.
func Owner(c *gin.Context) string {
	return c.GetString(UserContextKey)
}

// IsGuest reports whether the current identity is a guest session.
func IsGuest(c *gin.Context) bool {
	return c.GetBool(GuestContextKey)
}

// AdminID returns the admin id set by RequireAdmin.
func AdminID(c *gin.Context) string {
	return c.GetString(AdminContextKey)
}
