package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryEntry struct {
	handshake Handshake
	expiresAt time.Time
}

// MemoryStore is a process-local SecretStore for single-instance deployments
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory secret store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores h for sessionKey, replacing any pending handshake
func (s *MemoryStore) Put(ctx context.Context, sessionKey string, h Handshake, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	s.entries[sessionKey] = memoryEntry{handshake: h, expiresAt: s.now().Add(ttl)}
	return nil
}

// Take returns and removes the handshake for sessionKey
func (s *MemoryStore) Take(ctx context.Context, sessionKey string) (Handshake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionKey]
	delete(s.entries, sessionKey)
	if !ok || !s.now().Before(entry.expiresAt) {
		return Handshake{}, ErrHandshakeNotFound
	}
	return entry.handshake, nil
}

// Len returns the number of pending handshakes
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) pruneLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

const redisKeyPrefix = "xreacher:oauth:handshake:"

// RedisStore is a SecretStore shared by every gateway instance
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed secret store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores h for sessionKey with a TTL, replacing any pending handshake
func (s *RedisStore) Put(ctx context.Context, sessionKey string, h Handshake, ttl time.Duration) error {
	payload, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal handshake: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sessionKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store handshake: %w", err)
	}
	return nil
}

// Take returns and removes the handshake for sessionKey using GETDEL
func (s *RedisStore) Take(ctx context.Context, sessionKey string) (Handshake, error) {
	payload, err := s.client.GetDel(ctx, redisKeyPrefix+sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Handshake{}, ErrHandshakeNotFound
	}
	if err != nil {
		return Handshake{}, fmt.Errorf("failed to read handshake: %w", err)
	}

	var h Handshake
	if err := json.Unmarshal(payload, &h); err != nil {
		return Handshake{}, fmt.Errorf("failed to decode handshake: %w", err)
	}
	return h, nil
}
