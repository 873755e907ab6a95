package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserKey    = "user_name"
	IsAdminKey = "user_is_admin"
)

// ExtractUserContext reads the identity headers injected by the reverse
// proxy in front of the app (Authelia, authentik or similar):
//   - Remote-User: authenticated username
//   - Remote-Groups: comma-separated group list; membership in "admin"
//     grants admin rights
//
// The app itself performs no authentication; it trusts the proxy.
func ExtractUserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader("Remote-User")
		if user != "" {
			c.Set(UserKey, user)
		}

		for _, group := range strings.Split(c.GetHeader("Remote-Groups"), ",") {
			if strings.TrimSpace(group) == "admin" {
				c.Set(IsAdminKey, true)
				break
			}
		}

		c.Next()
	}
}

// GetUser returns the authenticated username, empty when anonymous.
func GetUser(c *gin.Context) string {
	if user, exists := c.Get(UserKey); exists {
		if name, ok := user.(string); ok {
			return name
		}
	}
	return ""
}

// IsAdmin reports whether the caller is in the admin group.
func IsAdmin(c *gin.Context) bool {
	if admin, exists := c.Get(IsAdminKey); exists {
		if flag, ok := admin.(bool); ok {
			return flag
		}
	}
	return false
}

// RequireUser aborts anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts requests from callers outside the admin group.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
