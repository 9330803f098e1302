package credentials

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Repository abstracts credential storage. Implementations only fetch;
// password comparison happens in the Service so it cannot be skipped.
type Repository interface {
	Lookup(ctx context.Context, username string) (Credential, error)
}

// Verifier is the boundary the session layer depends on. The rest of the
// system treats credential verification as an external collaborator and never
// sees password material.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// Verify checks a username/password pair against the repository.
//
// Error contract:
//   - ErrMissingFields when either field is blank
//   - ErrInvalidCredentials for unknown username OR wrong password
//   - anything else is an internal failure
func (s *Service) Verify(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrMissingFields
	}
	if s.repo == nil {
		return User{}, errors.New("credentials: repository not configured")
	}

	cred, err := s.repo.Lookup(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return cred.User, nil
}
