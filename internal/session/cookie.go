package session

import (
	"net/http"
	"time"
)

// CookieWriter manages the transport credential marker: the cookie whose
// presence the edge gate checks before a request reaches a protected page.
// The value mirrors the current access token and carries no role information.
type CookieWriter struct {
	Name   string
	TTL    time.Duration // follows the access token TTL
	Secure bool          // true in production
}

// Set writes the marker after a successful login or refresh.
func (cw CookieWriter) Set(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cw.Name,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(cw.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the marker immediately on logout.
func (cw CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cw.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
