package credentials

import (
	"errors"
	"time"
)

// User is the verified identity returned to the session layer.
// It never includes password material.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Credential is the stored record a repository returns for verification.
// PasswordHash is a bcrypt hash; plaintext passwords are never stored.
type Credential struct {
	User

	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrMissingFields: username or password blank. Surfaced as HTTP 400.
	ErrMissingFields = errors.New("credentials: username and password are required")

	// ErrInvalidCredentials covers both unknown username and wrong password;
	// callers must not be able to tell the two apart. Surfaced as HTTP 401.
	ErrInvalidCredentials = errors.New("credentials: invalid credentials")

	// ErrNotFound is repository-internal; the service folds it into
	// ErrInvalidCredentials before it reaches any caller.
	ErrNotFound = errors.New("credentials: not found")
)
