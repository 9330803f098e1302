// Package gate is the coarse edge filter in front of the page routes. It only
// tests whether the transport credential marker exists; it never decodes the
// token and never learns the viewer's role. The fine-grained decision belongs
// to the page guard in internal/rbac, which runs after session resolution.
package gate

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const loginPath = "/login"

// publicPaths may be visited without a marker. A marker on a public path is
// also let through unchanged: the gate cannot know which dashboard to send
// the viewer to, so the role-aware redirect is deferred to the guard.
var publicPaths = map[string]struct{}{
	"/":                {},
	"/login":           {},
	"/signup":          {},
	"/forgot-password": {},
}

func IsPublic(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

// Middleware enforces the edge contract on every page navigation:
//
//	public path                  -> pass through
//	non-public path, no marker   -> 302 /login
//	non-public path, marker      -> pass through
func Middleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if IsPublic(path) {
			c.Next()
			return
		}

		if !hasMarker(c, cookieName) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

func hasMarker(c *gin.Context, cookieName string) bool {
	v, err := c.Cookie(cookieName)
	return err == nil && v != ""
}
