package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finverify-platform/internal/audit"
	"finverify-platform/internal/auth"
	"finverify-platform/internal/config"
	"finverify-platform/internal/credentials"
	"finverify-platform/internal/insights"
	"finverify-platform/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const testCookieName = "auth_token"

type testServer struct {
	router *gin.Engine
	audit  *audit.MemoryRepo
	creds  *credentials.MemoryRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	creds := credentials.NewMemoryRepo()
	for _, u := range []struct{ name, role string }{
		{"l1user@finverify.com", "L1"},
		{"l2user@finverify.com", "L2"},
		{"l3user@finverify.com", "L3"},
	} {
		if err := creds.Seed(u.name, "password123", u.role, bcrypt.MinCost); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}

	sessions := session.NewManager(credentials.NewService(creds), tokens, session.NewStore(rdb))
	cookies := session.CookieWriter{Name: testCookieName, TTL: time.Hour}

	insRepo := insights.NewMemoryRepo()
	insRepo.Scores["l1user@finverify.com"] = insights.CreditScore{Username: "l1user@finverify.com", Score: 705}
	auditRepo := audit.NewMemoryRepo()

	router := NewRouter(Deps{
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens:   tokens,
		Sessions: sessions,
		Cookies:  cookies,
		Handlers: Handlers{
			Sessions: sessions,
			Cookies:  cookies,
			Insights: insights.NewService(insRepo),
			Audit:    audit.NewService(auditRepo),
		},
	})
	return &testServer{router: router, audit: auditRepo, creds: creds}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, mod func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mod != nil {
		mod(req)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, username, password string) (tokenResponse, *http.Cookie) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/auth/login", gin.H{"username": username, "password": password}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == testCookieName {
			return resp, ck
		}
	}
	t.Fatalf("login did not set marker cookie")
	return resp, nil
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return body.Message
}

func TestLogin_Success(t *testing.T) {
	ts := newTestServer(t)

	resp, ck := ts.login(t, "l1user@finverify.com", "password123")
	if resp.RedirectURL != "l1/dashboard" {
		t.Fatalf("expected redirect_url l1/dashboard, got %q", resp.RedirectURL)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected Bearer, got %q", resp.TokenType)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected token pair")
	}

	if ck.Value != resp.AccessToken {
		t.Fatalf("marker cookie must mirror the access token")
	}
	if ck.MaxAge != 3600 || !ck.HttpOnly || ck.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/auth/login", gin.H{"username": "l1user@finverify.com", "password": "wrong"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := messageOf(t, w); msg != "Invalid credentials" {
		t.Fatalf("unexpected message %q", msg)
	}

	// Failed attempts land in the audit trail.
	events := ts.audit.Events()
	if len(events) != 1 || events[0].Type != audit.EventTypeLoginFailure {
		t.Fatalf("unexpected audit events: %+v", events)
	}
}

func TestLogin_MissingField(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/auth/login", gin.H{"username": "l1user@finverify.com"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRefresh_RotatesAndSetsCookie(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t, "l2user@finverify.com", "password123")

	w := ts.do(t, http.MethodPost, "/v1/auth/refresh", gin.H{"refresh_token": resp.RefreshToken}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var next tokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if next.RefreshToken == resp.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}

	refreshed := false
	for _, ck := range w.Result().Cookies() {
		if ck.Name == testCookieName && ck.Value == next.AccessToken {
			refreshed = true
		}
	}
	if !refreshed {
		t.Fatalf("refresh did not re-set the marker cookie")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/auth/refresh", gin.H{"refresh_token": "bogus"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if msg := messageOf(t, w); msg != "Invalid refresh token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestLogout_ClearsCookieAndSession(t *testing.T) {
	ts := newTestServer(t)
	resp, ck := ts.login(t, "l1user@finverify.com", "password123")

	w := ts.do(t, http.MethodPost, "/v1/auth/logout", nil, func(req *http.Request) {
		req.AddCookie(ck)
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == testCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("logout did not expire the marker cookie")
	}

	// The old refresh token is dead with the session.
	w = ts.do(t, http.MethodPost, "/v1/auth/refresh", gin.H{"refresh_token": resp.RefreshToken}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}

	// And the guard sends the stale cookie back to /login.
	w = ts.do(t, http.MethodGet, "/l1/dashboard", nil, func(req *http.Request) {
		req.AddCookie(ck)
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestLogout_WithoutSessionIsNoOp(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/auth/logout", nil, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestDashboard_FullRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	_, ck := ts.login(t, "l1user@finverify.com", "password123")

	w := ts.do(t, http.MethodGet, "/l1/dashboard", nil, func(req *http.Request) {
		req.AddCookie(ck)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDashboard_WrongRoleRedirectsToOwn(t *testing.T) {
	ts := newTestServer(t)
	_, ck := ts.login(t, "l1user@finverify.com", "password123")

	// An L1 session asking for the L3 dashboard lands on its own dashboard.
	w := ts.do(t, http.MethodGet, "/l3/dashboard", nil, func(req *http.Request) {
		req.AddCookie(ck)
	})
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/l1/dashboard" {
		t.Fatalf("expected /l1/dashboard, got %q", loc)
	}
}

func TestDashboard_NoMarkerRedirectsToLogin(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/l2/dashboard", "/l2/dashboard/anything"} {
		w := ts.do(t, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
			t.Fatalf("%s: expected redirect to /login, got %d %q", path, w.Code, w.Header().Get("Location"))
		}
	}
}

func TestDashboard_ForgedMarkerRejectedByGuard(t *testing.T) {
	ts := newTestServer(t)

	// Any marker passes the edge gate; the guard re-checks the full session.
	w := ts.do(t, http.MethodGet, "/l1/dashboard", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "forged"})
	})
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", w.Code, w.Header().Get("Location"))
	}
}

func TestMe_WithBearerToken(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t, "l2user@finverify.com", "password123")

	w := ts.do(t, http.MethodGet, "/v1/me", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Username != "l2user@finverify.com" || body.Role != "L2" {
		t.Fatalf("unexpected identity: %+v", body)
	}
}

func TestInsights_CreditScoreForViewer(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := ts.login(t, "l1user@finverify.com", "password123")

	w := ts.do(t, http.MethodGet, "/v1/insights/credit-score", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cs insights.CreditScore
	if err := json.Unmarshal(w.Body.Bytes(), &cs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cs.Score != 705 || cs.Band != insights.BandGood {
		t.Fatalf("unexpected score payload: %+v", cs)
	}
}

func TestInsights_FunnelRequiresL3(t *testing.T) {
	ts := newTestServer(t)

	l1, _ := ts.login(t, "l1user@finverify.com", "password123")
	w := ts.do(t, http.MethodGet, "/v1/insights/funnel", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+l1.AccessToken)
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for L1, got %d", w.Code)
	}

	l3, _ := ts.login(t, "l3user@finverify.com", "password123")
	w = ts.do(t, http.MethodGet, "/v1/insights/funnel", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+l3.AccessToken)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for L3, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
