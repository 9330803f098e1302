package session

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"finverify-platform/internal/auth"
	"finverify-platform/internal/credentials"
)

// Session is the authenticated identity and token pair for the current viewer.
// User and Tokens are populated together or not at all; callers never see a
// half-built session.
//
// Restored sessions (rebuilt from durable storage for a presented access
// token) carry only the access token: the refresh token itself is never
// persisted, only its hash, so it cannot be reconstructed.
type Session struct {
	User        credentials.User `json:"user"`
	Tokens      auth.TokenPair   `json:"-"`
	RedirectURL string           `json:"redirect_url"`
}

// Record is the durable per-user session state. Exactly one record exists per
// user; a new login replaces it. The record outlives the access token and
// expires in lockstep with the refresh token TTL.
type Record struct {
	SessionID   string
	UserID      string
	Username    string
	Role        string
	RefreshSHA  string // hex SHA-256 of the current refresh token
	CreatedAt   time.Time
	RefreshedAt time.Time
}

var (
	// ErrNoSession: no durable record for the user (logged out or expired).
	ErrNoSession = errors.New("session: no active session")

	// ErrRefreshMismatch: the presented refresh token is not the current one.
	// Either it was already rotated (replay) or the session was replaced.
	ErrRefreshMismatch = errors.New("session: refresh token mismatch")

	// ErrRefreshRejected is what the manager reports for every refresh
	// failure; callers answer 401 and decide between one retry and logout.
	ErrRefreshRejected = errors.New("session: refresh rejected")
)

// HashToken fingerprints a token for storage. Only hashes are persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
