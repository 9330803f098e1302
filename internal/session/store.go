package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fv:session:"

// Store persists session records in Redis, one hash per user.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func key(userID string) string { return keyPrefix + userID }

// rotateScript atomically compares the stored refresh hash and swaps in the
// new one. Without the compare-and-swap a replayed refresh token could race a
// legitimate rotation and mint a second valid pair.
//
// Returns: 0 no session, 1 hash mismatch, 2 rotated.
var rotateScript = redis.NewScript(`
local sha = redis.call('HGET', KEYS[1], 'refresh_sha')
if not sha then
  return 0
end
if sha ~= ARGV[1] then
  return 1
end
redis.call('HSET', KEYS[1], 'refresh_sha', ARGV[2], 'refreshed_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 2
`)

// Save writes the record, replacing any previous session for the user.
// ttl should be the refresh token TTL; the durable session and the refresh
// token expire together.
func (s *Store) Save(ctx context.Context, rec Record, ttl time.Duration) error {
	if rec.UserID == "" || rec.SessionID == "" {
		return fmt.Errorf("session: record requires user_id and session_id")
	}

	k := key(rec.UserID)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, map[string]any{
		"session_id":   rec.SessionID,
		"username":     rec.Username,
		"role":         rec.Role,
		"refresh_sha":  rec.RefreshSHA,
		"created_at":   rec.CreatedAt.Unix(),
		"refreshed_at": rec.RefreshedAt.Unix(),
	})
	pipe.PExpire(ctx, k, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Get loads the record for a user. Structurally invalid records are reported
// as ErrNoSession; the caller treats that as unauthenticated, not a fault.
func (s *Store) Get(ctx context.Context, userID string) (Record, error) {
	vals, err := s.rdb.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return Record{}, err
	}
	if len(vals) == 0 {
		return Record{}, ErrNoSession
	}

	rec := Record{
		SessionID:  vals["session_id"],
		UserID:     userID,
		Username:   vals["username"],
		Role:       vals["role"],
		RefreshSHA: vals["refresh_sha"],
	}
	if rec.SessionID == "" || rec.Username == "" || rec.Role == "" || rec.RefreshSHA == "" {
		return Record{}, ErrNoSession
	}
	if n, err := strconv.ParseInt(vals["created_at"], 10, 64); err == nil {
		rec.CreatedAt = time.Unix(n, 0).UTC()
	}
	if n, err := strconv.ParseInt(vals["refreshed_at"], 10, 64); err == nil {
		rec.RefreshedAt = time.Unix(n, 0).UTC()
	}
	return rec, nil
}

// Rotate swaps the stored refresh hash if and only if oldSHA is current,
// and renews the record TTL.
func (s *Store) Rotate(ctx context.Context, userID, oldSHA, newSHA string, now time.Time, ttl time.Duration) error {
	res, err := rotateScript.Run(ctx, s.rdb,
		[]string{key(userID)},
		oldSHA,
		newSHA,
		now.Unix(),
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return err
	}
	switch res {
	case 0:
		return ErrNoSession
	case 1:
		return ErrRefreshMismatch
	default:
		return nil
	}
}

// Delete removes the record. Deleting an absent session is a no-op.
func (s *Store) Delete(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}
