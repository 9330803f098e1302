package credentials

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryRepo is an in-memory credential repository for tests and local dev.
// It is not intended for production use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byName map[string]Credential
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byName: map[string]Credential{}}
}

// Seed stores a credential, hashing the password with bcrypt.
// cost <= 0 falls back to bcrypt.DefaultCost; tests pass bcrypt.MinCost.
func (r *MemoryRepo) Seed(username, password, role string, cost int) error {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[username] = Credential{
		User: User{
			ID:       uuid.NewString(),
			Username: username,
			Role:     role,
		},
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return nil
}

func (r *MemoryRepo) Lookup(ctx context.Context, username string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[username]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return c, nil
}
