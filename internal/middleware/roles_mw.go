package middleware

import (
	"net/http"

	"visit_portal/internal/model"

	"github.com/gin-gonic/gin"
)

// AuthUser returns the authenticated user set by SessionAuthMiddleware
func AuthUser(c *gin.Context) (*model.User, bool) {
	userVal, exists := c.Get(AuthUserKey)
	if !exists {
		return nil, false
	}
	user, ok := userVal.(*model.User)
	return user, ok
}

// RoleMiddleware creates a middleware to check for specific user roles
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := AuthUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User not found in context, ensure session middleware runs first"})
			return
		}

		isAllowed := false
		for _, allowedRole := range allowedRoles {
			if user.Role == allowedRole {
				isAllowed = true
				break
			}
		}

		if !isAllowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}

		c.Next()
	}
}

// AdminMiddleware checks if the user is an admin
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleAdmin)
}
