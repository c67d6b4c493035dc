package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"digital-forms-platform/runner/internal/session/domain"
)

// keyPrefix namespaces session entries in Redis.
const keyPrefix = "session:"

// RedisStore is a Redis-backed session store. Entries are JSON-encoded state
// blobs with a TTL equal to the initialised session timeout; Redis expiry is
// the only destruction path besides DestroySession.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore returns a store over the given client. ttl bounds every
// session entry; merges and activation preserve the remaining TTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// CreateSession stores initial state under token. Fails with ErrSessionExists
// when the token already has live state.
func (s *RedisStore) CreateSession(ctx context.Context, token string, initial *domain.State) error {
	raw, err := json.Marshal(initial)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, keyPrefix+token, raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionExists
	}
	return nil
}

// GetState returns the state for token, or ErrSessionNotFound when absent or expired.
func (s *RedisStore) GetState(ctx context.Context, token string) (*domain.State, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	var state domain.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// MergeState applies partial onto the stored state (shallow, top-level replace)
// and writes it back without resetting the TTL.
func (s *RedisStore) MergeState(ctx context.Context, token string, partial *domain.State) error {
	state, err := s.GetState(ctx, token)
	if err != nil {
		return err
	}
	state.Merge(partial)
	return s.save(ctx, token, state)
}

// ActivateSession marks the session usable and returns the stored redirect path.
func (s *RedisStore) ActivateSession(ctx context.Context, token string) (*Activation, error) {
	state, err := s.GetState(ctx, token)
	if err != nil {
		return nil, err
	}
	state.Activated = true
	if err := s.save(ctx, token, state); err != nil {
		return nil, err
	}
	return &Activation{RedirectPath: state.RedirectPath()}, nil
}

// DestroySession removes the session entry. Missing entries are not an error.
func (s *RedisStore) DestroySession(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, keyPrefix+token).Err()
}

// Ping verifies connectivity for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) save(ctx context.Context, token string, state *domain.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	// KeepTTL so rewrites do not extend the session lifetime.
	return s.rdb.Set(ctx, keyPrefix+token, raw, redis.KeepTTL).Err()
}
