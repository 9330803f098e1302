package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb), mr
}

func testRecord(userID string) Record {
	now := time.Unix(1700000000, 0).UTC()
	return Record{
		SessionID:   "sess-" + userID,
		UserID:      userID,
		Username:    userID + "@finverify.com",
		Role:        "L1",
		RefreshSHA:  HashToken("refresh-" + userID),
		CreatedAt:   now,
		RefreshedAt: now,
	}
}

func TestStore_SaveGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("u1")
	if err := s.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != rec {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestStore_RecordExpiresWithTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testRecord("u1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if _, err := s.Get(ctx, "u1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after TTL, got %v", err)
	}
}

func TestStore_RotateSwapsHash(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("u1")
	if err := s.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	now := time.Unix(1700003600, 0).UTC()
	newSHA := HashToken("refresh-next")
	if err := s.Rotate(ctx, "u1", rec.RefreshSHA, newSHA, now, time.Hour); err != nil {
		t.Fatalf("rotate: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RefreshSHA != newSHA {
		t.Fatalf("hash not rotated")
	}
	if !got.RefreshedAt.Equal(now) {
		t.Fatalf("refreshed_at not updated: %v", got.RefreshedAt)
	}
}

func TestStore_RotateRejectsStaleHash(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("u1")
	if err := s.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Rotate(ctx, "u1", rec.RefreshSHA, HashToken("next"), time.Now(), time.Hour); err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	// Replaying the original hash must fail now.
	err := s.Rotate(ctx, "u1", rec.RefreshSHA, HashToken("evil"), time.Now(), time.Hour)
	if !errors.Is(err, ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch, got %v", err)
	}
}

func TestStore_RotateMissingSession(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Rotate(context.Background(), "ghost", "a", "b", time.Now(), time.Hour)
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestStore_DeleteIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, testRecord("u1"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "u1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get(ctx, "u1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestStore_SaveReplacesPreviousSession(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := testRecord("u1")
	if err := s.Save(ctx, first, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := first
	second.SessionID = "sess-2"
	second.RefreshSHA = HashToken("refresh-2")
	if err := s.Save(ctx, second, time.Hour); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SessionID != "sess-2" {
		t.Fatalf("expected replacement, got %+v", got)
	}
}
