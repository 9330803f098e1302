package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finverify-platform/internal/auth"
	"finverify-platform/internal/credentials"
	"finverify-platform/internal/rbac"
	"finverify-platform/pkg/logger"

	"github.com/google/uuid"
)

// Manager is the single writer of session state. Every transition (login,
// refresh, logout) goes through here; the edge gate and the page guard only
// ever read derived views (marker presence, restored identity).
//
// Transitions need no process-local locking: the store's compare-and-swap
// rotation is the only operation where concurrent writers could disagree, and
// it is atomic in Redis.
type Manager struct {
	verifier credentials.Verifier
	tokens   *auth.Manager
	store    *Store
	clock    func() time.Time
}

func NewManager(verifier credentials.Verifier, tokens *auth.Manager, store *Store) *Manager {
	return &Manager{
		verifier: verifier,
		tokens:   tokens,
		store:    store,
		clock:    time.Now,
	}
}

// Login verifies credentials, mints a token pair, and persists the session.
// Credential errors pass through unchanged (ErrMissingFields,
// ErrInvalidCredentials) and mutate no state.
func (m *Manager) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := m.verifier.Verify(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	if !rbac.IsValid(u.Role) {
		// A credential row with an unknown role is a data fault, not an auth failure.
		return Session{}, fmt.Errorf("session: user %s has unknown role %q", u.ID, u.Role)
	}

	now := m.clock().UTC()
	sid := uuid.NewString()
	pair, err := m.tokens.IssuePair(now, u.ID, u.Username, u.Role, sid)
	if err != nil {
		return Session{}, err
	}

	rec := Record{
		SessionID:   sid,
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		RefreshSHA:  HashToken(pair.RefreshToken),
		CreatedAt:   now,
		RefreshedAt: now,
	}
	if err := m.store.Save(ctx, rec, m.tokens.RefreshTTL()); err != nil {
		return Session{}, err
	}

	return Session{
		User:        u,
		Tokens:      pair,
		RedirectURL: rbac.RedirectURL(u.Role),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. Username and role are
// unchanged; the role comes from the durable record since refresh tokens do
// not carry one. Every failure is ErrRefreshRejected; the caller answers 401
// and decides between one retry and logout. The manager never retries.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	now := m.clock().UTC()

	claims, err := m.tokens.Verify(refreshToken, auth.TokenTypeRefresh, now)
	if err != nil {
		return Session{}, ErrRefreshRejected
	}

	rec, err := m.store.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return Session{}, ErrRefreshRejected
		}
		return Session{}, err
	}
	if rec.SessionID != claims.SessionID {
		// Token from a session that has since been replaced by a new login.
		return Session{}, ErrRefreshRejected
	}

	pair, err := m.tokens.IssuePair(now, rec.UserID, rec.Username, rec.Role, rec.SessionID)
	if err != nil {
		return Session{}, err
	}

	err = m.store.Rotate(ctx, rec.UserID, HashToken(refreshToken), HashToken(pair.RefreshToken), now, m.tokens.RefreshTTL())
	if err != nil {
		if errors.Is(err, ErrNoSession) || errors.Is(err, ErrRefreshMismatch) {
			return Session{}, ErrRefreshRejected
		}
		return Session{}, err
	}

	return Session{
		User: credentials.User{
			ID:       rec.UserID,
			Username: rec.Username,
			Role:     rec.Role,
		},
		Tokens:      pair,
		RedirectURL: rbac.RedirectURL(rec.Role),
	}, nil
}

// Logout destroys the session for the presented access token. Idempotent:
// an invalid or expired token, or an already-deleted session, is a no-op.
// The caller clears the marker cookie regardless.
func (m *Manager) Logout(ctx context.Context, accessToken string) error {
	claims, err := m.tokens.Verify(accessToken, auth.TokenTypeAccess, m.clock().UTC())
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.UserID)
}

// Restore rebuilds the session for a presented access token from durable
// storage. Anything structurally wrong (bad token, missing record, record
// from a different session) yields (zero, false): that is the normal
// expired-session flow, never an error. Infrastructure failures are logged
// and also reported as unauthenticated.
func (m *Manager) Restore(ctx context.Context, accessToken string) (Session, bool) {
	now := m.clock().UTC()

	claims, err := m.tokens.Verify(accessToken, auth.TokenTypeAccess, now)
	if err != nil {
		return Session{}, false
	}

	rec, err := m.store.Get(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.From(ctx).Error("session restore failed", "err", err)
		}
		return Session{}, false
	}
	if rec.SessionID != claims.SessionID || rec.Username != claims.Username || rec.Role != claims.Role {
		return Session{}, false
	}

	return Session{
		User: credentials.User{
			ID:       rec.UserID,
			Username: rec.Username,
			Role:     rec.Role,
		},
		Tokens:      auth.TokenPair{AccessToken: accessToken},
		RedirectURL: rbac.RedirectURL(rec.Role),
	}, true
}
