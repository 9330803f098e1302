package httpapi

import (
	"errors"
	"net/http"
	"time"

	"finverify-platform/internal/audit"
	"finverify-platform/internal/auth"
	"finverify-platform/internal/credentials"
	"finverify-platform/internal/insights"
	"finverify-platform/internal/session"
	"finverify-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Sessions *session.Manager
	Cookies  session.CookieWriter
	Insights *insights.Service
	Audit    *audit.Service
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	RedirectURL  string `json:"redirect_url,omitempty"`
}

// Login verifies credentials, establishes the session, and sets the marker
// cookie. Failure bodies always use {"message": ...}; internal details are
// logged, never returned.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}

	sess, err := h.Sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrMissingFields):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		case errors.Is(err, credentials.ErrInvalidCredentials):
			h.auditLogin(c, false, "", req.Username, "")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		default:
			logger.FromGin(c).Error("login failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	h.auditLogin(c, true, sess.User.ID, sess.User.Username, sess.User.Role)
	h.Cookies.Set(c.Writer, sess.Tokens.AccessToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		TokenType:    auth.BearerType,
		RedirectURL:  sess.RedirectURL,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the token pair and re-sets the marker cookie. Every
// rejection is a uniform 401; the client decides between one retry and logout.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	sess, err := h.Sessions.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRefreshRejected) {
			h.auditRefresh(c, false, "")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
			return
		}
		logger.FromGin(c).Error("refresh failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	h.auditRefresh(c, true, sess.User.ID)
	h.Cookies.Set(c.Writer, sess.Tokens.AccessToken)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		TokenType:    auth.BearerType,
	})
}

// Logout destroys the session and expires the marker cookie. Idempotent: a
// request with no usable token still clears the cookie and returns 204.
func (h Handlers) Logout(c *gin.Context) {
	tok := auth.TokenFromRequest(c, h.Cookies.Name)
	if tok != "" {
		if sess, ok := h.Sessions.Restore(c.Request.Context(), tok); ok && h.Audit != nil {
			if err := h.Audit.LogLogout(c.Request.Context(), sess.User.ID, sess.User.Username, c.ClientIP()); err != nil {
				logger.FromGin(c).Warn("audit append failed", "err", err)
			}
		}
		if err := h.Sessions.Logout(c.Request.Context(), tok); err != nil {
			logger.FromGin(c).Error("logout failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}
	}
	h.Cookies.Clear(c.Writer)
	c.Status(http.StatusNoContent)
}

// Me echoes the authenticated identity. Mostly useful for client bootstrap.
func (h Handlers) Me(c *gin.Context) {
	uid, _ := auth.UserID(c.Request.Context())
	username, _ := auth.Username(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"user_id": uid, "username": username, "role": role})
}

// --- Insights ---

func (h Handlers) CreditScoreGauge(c *gin.Context) {
	username, err := auth.Username(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}

	cs, err := h.Insights.Gauge(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, insights.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "no credit score on file"})
			return
		}
		logger.FromGin(c).Error("gauge failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, cs)
}

func (h Handlers) SpendingBreakdown(c *gin.Context) {
	username, err := auth.Username(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
		return
	}

	rng, err := parseRange(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid time range"})
		return
	}

	sum, err := h.Insights.SpendingSummary(c.Request.Context(), insights.SpendingSummaryRequest{
		Username: username,
		Range:    rng,
	})
	if err != nil {
		if errors.Is(err, insights.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid time range"})
			return
		}
		logger.FromGin(c).Error("spending summary failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h Handlers) ApplicationFunnel(c *gin.Context) {
	rng, err := parseRange(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid time range"})
		return
	}

	rep, err := h.Insights.ApplicationFunnel(c.Request.Context(), insights.FunnelRequest{Range: rng})
	if err != nil {
		if errors.Is(err, insights.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid time range"})
			return
		}
		logger.FromGin(c).Error("funnel failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// parseRange reads from/to query params (RFC 3339), defaulting to the last
// 30 days.
func parseRange(c *gin.Context) (insights.TimeRange, error) {
	now := time.Now().UTC()
	rng := insights.TimeRange{From: now.AddDate(0, 0, -30), To: now}

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return insights.TimeRange{}, err
		}
		rng.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return insights.TimeRange{}, err
		}
		rng.To = t
	}
	return rng, nil
}

// --- Pages ---

// Page serves a minimal payload for a public page; the web front end owns the
// real markup.
func Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": name})
	}
}

// DashboardPage serves the protected dashboard shell. It runs strictly behind
// the role guard, so reaching it means the viewer is authorized.
func DashboardPage(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := auth.Username(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"page":     "dashboard",
			"role":     role,
			"username": username,
		})
	}
}

// --- audit helpers (best-effort) ---

func (h Handlers) auditLogin(c *gin.Context, ok bool, userID, username, role string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogLogin(c.Request.Context(), ok, userID, username, role, c.ClientIP()); err != nil {
		logger.FromGin(c).Warn("audit append failed", "err", err)
	}
}

func (h Handlers) auditRefresh(c *gin.Context, ok bool, userID string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogRefresh(c.Request.Context(), ok, userID, c.ClientIP()); err != nil {
		logger.FromGin(c).Warn("audit append failed", "err", err)
	}
}
