package session

import (
	"finverify-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// Resolve restores the session from the marker cookie and injects identity
// into the request context. It never redirects and never aborts: by the time
// any guard runs, the session is fully resolved, so no redirect can fire
// before the identity is known.
func Resolve(m *Manager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, err := c.Cookie(cookieName)
		if err == nil && tok != "" {
			if sess, ok := m.Restore(c.Request.Context(), tok); ok {
				ctx := auth.WithIdentity(c.Request.Context(), sess.User.ID, sess.User.Username, sess.User.Role)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}
