package httpapi

import (
	"log/slog"

	"finverify-platform/internal/auth"
	"finverify-platform/internal/gate"
	"finverify-platform/internal/rbac"
	"finverify-platform/internal/session"
	"finverify-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Deps are the wired services the router needs. No globals: everything is
// injected here and torn down by the caller.
type Deps struct {
	Log      *slog.Logger
	Tokens   *auth.Manager
	Sessions *session.Manager
	Cookies  session.CookieWriter
	Handlers Handlers
}

// NewRouter wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
//
// Two guard chains exist on purpose:
//   - page routes: edge gate (marker presence) -> session resolve -> role guard
//   - JSON API:    access token middleware -> role middleware
//
// The gate is the coarse filter; the guard re-checks with the full session.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(d.Log))

	h := d.Handlers
	cookieName := d.Cookies.Name

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Page routes. The gate sees every navigation; the resolver fills in the
	// session before any guard decision.
	pages := r.Group("/")
	pages.Use(gate.Middleware(cookieName))
	pages.Use(session.Resolve(d.Sessions, cookieName))
	{
		pages.GET("/", Page("home"))
		pages.GET("/login", Page("login"))
		pages.GET("/signup", Page("signup"))
		pages.GET("/forgot-password", Page("forgot-password"))

		for _, role := range []string{rbac.RoleL1, rbac.RoleL2, rbac.RoleL3} {
			guarded := pages.Group(rbac.DashboardPath(role))
			guarded.Use(rbac.RequireDashboardRole(role))
			{
				guarded.GET("", DashboardPage(role))
				guarded.GET("/*page", DashboardPage(role))
			}
		}
	}

	// JSON API.
	v1 := r.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Login)
			authGroup.POST("/refresh", h.Refresh)
			authGroup.POST("/logout", h.Logout)
		}

		authed := v1.Group("")
		authed.Use(auth.RequireAccessToken(d.Tokens, cookieName))
		{
			authed.GET("/me", h.Me)

			ins := authed.Group("/insights")
			{
				ins.GET("/credit-score", h.CreditScoreGauge)
				ins.GET("/spending", h.SpendingBreakdown)

				// The application funnel is the ops view on the L3 dashboard.
				ins.GET("/funnel", rbac.RequireAnyRole(rbac.RoleL3), h.ApplicationFunnel)
			}
		}
	}

	return r
}
