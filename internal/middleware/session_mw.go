package middleware

import (
	"net/http"

	"visit_portal/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName is the cookie carrying the signed session token
	SessionCookieName = "pv_session"
	// AuthUserKey is the context key holding the authenticated *model.User
	AuthUserKey = "authUser"
)

// SessionCookie writes and clears the session cookie with the right scope:
// httpOnly, SameSite=Lax, Secure in production, max-age = session TTL.
type SessionCookie struct {
	MaxAge int // seconds
	Secure bool
}

// Set writes the session cookie
func (sc *SessionCookie) Set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, sc.MaxAge, "/", "", sc.Secure, true)
}

// Clear deletes the session cookie
func (sc *SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", sc.Secure, true)
}

// SessionAuthMiddleware resolves the session cookie to a user and aborts with
// 401 when there is none. A missing or expired session clears the cookie as a
// side effect.
func SessionAuthMiddleware(authService service.AuthService, cookie *SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		user, err := authService.GetSessionUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve session"})
			return
		}
		if user == nil {
			cookie.Clear(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		c.Set(AuthUserKey, user)
		c.Next()
	}
}
