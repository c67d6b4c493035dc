package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"digital-forms-platform/runner/internal/session/domain"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryStore is an in-process session store with the same contract as
// RedisStore. Suitable for tests and single-instance development only.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryStore returns an empty in-memory store with the given entry TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), ttl: ttl}
}

func (s *MemoryStore) CreateSession(ctx context.Context, token string, initial *domain.State) error {
	raw, err := json.Marshal(initial)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[token]; ok && time.Now().Before(e.expiresAt) {
		return domain.ErrSessionExists
	}
	s.entries[token] = memoryEntry{raw: raw, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) GetState(ctx context.Context, token string) (*domain.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(token)
}

func (s *MemoryStore) MergeState(ctx context.Context, token string, partial *domain.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.getLocked(token)
	if err != nil {
		return err
	}
	state.Merge(partial)
	return s.saveLocked(token, state)
}

func (s *MemoryStore) ActivateSession(ctx context.Context, token string) (*Activation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.getLocked(token)
	if err != nil {
		return nil, err
	}
	state.Activated = true
	if err := s.saveLocked(token, state); err != nil {
		return nil, err
	}
	return &Activation{RedirectPath: state.RedirectPath()}, nil
}

func (s *MemoryStore) DestroySession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

func (s *MemoryStore) getLocked(token string) (*domain.State, error) {
	e, ok := s.entries[token]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, token)
		return nil, domain.ErrSessionNotFound
	}
	var state domain.State
	if err := json.Unmarshal(e.raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// saveLocked rewrites the entry without extending its expiry.
func (s *MemoryStore) saveLocked(token string, state *domain.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	e := s.entries[token]
	s.entries[token] = memoryEntry{raw: raw, expiresAt: e.expiresAt}
	return nil
}
