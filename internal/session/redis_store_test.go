package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookvault/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreForTest(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, NewRedisStore(client, ttl)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, store := newRedisStoreForTest(t, time.Hour)
	ctx := context.Background()

	rec := &domain.SessionRecord{
		ID:           NewSessionID(),
		UserID:       "9",
		LastActivity: time.Now().UTC().Format(time.RFC3339),
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserID != rec.UserID || got.LastActivity != rec.LastActivity {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, rec.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisStoreTTLReapsIdleSessions(t *testing.T) {
	server, store := newRedisStoreForTest(t, time.Minute)
	ctx := context.Background()

	rec := &domain.SessionRecord{ID: "idle", UserID: "1"}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "idle"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session reaped by ttl, got %v", err)
	}
}

func TestRedisStoreRejectsEmptyID(t *testing.T) {
	_, store := newRedisStoreForTest(t, time.Minute)
	if err := store.Save(context.Background(), &domain.SessionRecord{}); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if _, err := store.Get(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for empty id, got %v", err)
	}
}
