package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records auth events. Callers treat audit logging as best-effort:
// a failed append is logged by the caller, never propagated into the flow
// that triggered it.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogLogin records a login attempt. userID and role are empty on failure.
func (s *Service) LogLogin(ctx context.Context, ok bool, userID, username, role, ip string) error {
	t := EventTypeLoginSuccess
	msg := "login succeeded"
	if !ok {
		t = EventTypeLoginFailure
		msg = "login rejected"
	}
	return s.Append(ctx, Event{
		Type:        t,
		ActorUserID: userID,
		Username:    username,
		Role:        role,
		IPAddress:   ip,
		Message:     msg,
	})
}

// LogRefresh records a token refresh outcome.
func (s *Service) LogRefresh(ctx context.Context, ok bool, userID, ip string) error {
	t := EventTypeTokenRefresh
	msg := "token pair rotated"
	if !ok {
		t = EventTypeRefreshRejected
		msg = "refresh token rejected"
	}
	return s.Append(ctx, Event{
		Type:        t,
		ActorUserID: userID,
		IPAddress:   ip,
		Message:     msg,
	})
}

// LogLogout records a session teardown.
func (s *Service) LogLogout(ctx context.Context, userID, username, ip string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeLogout,
		ActorUserID: userID,
		Username:    username,
		IPAddress:   ip,
		Message:     "session destroyed",
	})
}
