package rbac

import (
	"net/http"

	"finverify-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

const loginPath = "/login"

// RequireDashboardRole is the fine-grained page guard. It runs strictly after
// session resolution, so "no identity in context" always means unauthenticated,
// never still-loading.
//
// Decision table:
//   - no session            -> redirect to /login
//   - session, other role   -> redirect to the viewer's OWN dashboard
//   - session, role matches -> continue
//
// Wrong-role access is a silent redirect, never an error page. The wrapped
// handler is not invoked on any redirect path.
func RequireDashboardRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			redirect(c, loginPath)
			return
		}

		// An unknown role in context is treated as no session at all.
		if !IsValid(role) {
			redirect(c, loginPath)
			return
		}

		if role != required {
			redirect(c, DashboardPath(role))
			return
		}
		c.Next()
	}
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
	c.Abort()
}
