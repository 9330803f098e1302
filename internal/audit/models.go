package audit

import "time"

// Event is an immutable, append-only auth audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and IP capture are best-effort; auth flows never block on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: partition by time for retention.
type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the auth flow that produced the record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is set when the actor is known; login failures only have a username.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	Username    string `json:"username,omitempty" db:"username"`
	Role        string `json:"role,omitempty" db:"role"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeLoginSuccess    EventType = "login_success"
	EventTypeLoginFailure    EventType = "login_failure"
	EventTypeTokenRefresh    EventType = "token_refresh"
	EventTypeRefreshRejected EventType = "refresh_rejected"
	EventTypeLogout          EventType = "logout"
)
