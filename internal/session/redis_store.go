package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookvault/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session records under a key prefix with a rolling TTL, so
// idle sessions disappear without an explicit sweep.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{client: client, prefix: "session:", ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, record *domain.SessionRecord) error {
	if record.ID == "" {
		return errors.New("session id cannot be empty")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.prefix+record.ID, data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// DeleteStale is a no-op: the rolling TTL on Save already reaps idle
// sessions.
func (s *RedisStore) DeleteStale(context.Context, time.Time) (int64, error) { return 0, nil }
