package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

const cookieName = "auth_token"

func gateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cookieName))
	ok := func(c *gin.Context) { c.Status(200) }
	r.GET("/", ok)
	r.GET("/login", ok)
	r.GET("/signup", ok)
	r.GET("/forgot-password", ok)
	r.GET("/l2/dashboard", ok)
	r.GET("/l2/dashboard/:page", ok)
	return r
}

func request(r *gin.Engine, path string, withMarker bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withMarker {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: "opaque-marker"})
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGate_ProtectedWithoutMarkerRedirects(t *testing.T) {
	r := gateRouter()
	for _, path := range []string{"/l2/dashboard", "/l2/dashboard/reports", "/l2/dashboard/anything"} {
		w := request(r, path, false)
		if w.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Fatalf("%s: expected /login, got %q", path, loc)
		}
	}
}

func TestGate_ProtectedWithMarkerPasses(t *testing.T) {
	r := gateRouter()
	w := request(r, "/l2/dashboard/anything", true)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGate_PublicPathsPassWithoutMarker(t *testing.T) {
	r := gateRouter()
	for _, path := range []string{"/", "/login", "/signup", "/forgot-password"} {
		w := request(r, path, false)
		if w.Code != 200 {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestGate_PublicPathWithMarkerNotRedirected(t *testing.T) {
	// The gate does not know the role, so it must not attempt the
	// "already logged in" redirect; that belongs to the client of the guard.
	r := gateRouter()
	w := request(r, "/login", true)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGate_EmptyMarkerTreatedAsAbsent(t *testing.T) {
	r := gateRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/l2/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: ""})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
}
