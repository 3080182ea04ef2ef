// Package session persists per-session storefront state: cart snapshots,
// the applied coupon code, legal-notice acceptance and the store settings
// blob. It is the server-side counterpart of the browser local storage the
// storefront SPA keeps, so values are opaque JSON snapshots written on every
// mutation and read back at request time.
package session

import (
	"context"
	"sync"
	"time"
)

const (
	KeySettings = "store:settings"
)

func CartKey(sessionID string) string   { return "cart:" + sessionID }
func CouponKey(sessionID string) string { return "coupon:" + sessionID }
func LegalKey(sessionID string) string  { return "legal:" + sessionID }

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is the default single-process backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.entries[key] = stored
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
