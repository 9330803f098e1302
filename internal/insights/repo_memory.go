package insights

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory insights repository for tests and early
// development.
type MemoryRepo struct {
	mu sync.Mutex

	Scores   map[string]CreditScore // key: username
	Spending []SpendingEntry
	Funnel   []FunnelEvent
}

// FunnelEvent is one application reaching a pipeline stage.
type FunnelEvent struct {
	Stage     string
	ReachedAt time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{Scores: map[string]CreditScore{}}
}

func (r *MemoryRepo) CreditScore(ctx context.Context, username string) (CreditScore, error) {
	if username == "" {
		return CreditScore{}, errors.New("username required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.Scores[username]
	if !ok {
		return CreditScore{}, ErrNotFound
	}
	return cs, nil
}

func (r *MemoryRepo) ListSpending(ctx context.Context, username string, from, to time.Time) ([]SpendingEntry, error) {
	if username == "" {
		return nil, errors.New("username required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SpendingEntry
	for _, e := range r.Spending {
		if e.Username != username {
			continue
		}
		if e.SpentAt.Before(from) || e.SpentAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepo) CountFunnelStage(ctx context.Context, stage string, from, to time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Funnel {
		if e.Stage != stage {
			continue
		}
		if e.ReachedAt.Before(from) || e.ReachedAt.After(to) {
			continue
		}
		n++
	}
	return n, nil
}
