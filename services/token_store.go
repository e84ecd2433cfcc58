package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenStore tracks refresh sessions, revoked access tokens and attempt
// counters. Keys are token ids (jti) or caller supplied counter names.
type TokenStore interface {
	SaveSession(ctx context.Context, jti, userID string, ttl time.Duration) error
	SessionExists(ctx context.Context, jti string) (bool, error)
	RevokeSession(ctx context.Context, jti string) error
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	// IncrementAttempts bumps a counter that expires window after its first hit.
	IncrementAttempts(ctx context.Context, key string, window time.Duration) (int64, error)
	ResetAttempts(ctx context.Context, key string) error
}

func sessionKey(jti string) string   { return fmt.Sprintf("refresh_session:%s", jti) }
func blacklistKey(jti string) string { return fmt.Sprintf("blacklist:%s", jti) }
func attemptsKey(key string) string  { return fmt.Sprintf("attempts:%s", key) }

// NewTokenStore picks Redis when a client is available.
func NewTokenStore(client *redis.Client) TokenStore {
	if client == nil {
		return NewMemoryTokenStore()
	}
	return &RedisTokenStore{client: client}
}

type RedisTokenStore struct {
	client *redis.Client
}

func (s *RedisTokenStore) SaveSession(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) SessionExists(ctx context.Context, jti string) (bool, error) {
	return s.exists(ctx, sessionKey(jti))
}

func (s *RedisTokenStore) RevokeSession(ctx context.Context, jti string) error {
	return s.client.Del(ctx, sessionKey(jti)).Err()
}

func (s *RedisTokenStore) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

func (s *RedisTokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.exists(ctx, blacklistKey(jti))
}

func (s *RedisTokenStore) IncrementAttempts(ctx context.Context, key string, window time.Duration) (int64, error) {
	k := attemptsKey(key)
	n, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		s.client.Expire(ctx, k, window)
	}
	return n, nil
}

func (s *RedisTokenStore) ResetAttempts(ctx context.Context, key string) error {
	return s.client.Del(ctx, attemptsKey(key)).Err()
}

func (s *RedisTokenStore) exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type memoryEntry struct {
	value     int64
	expiresAt time.Time
}

// MemoryTokenStore keeps everything in process memory. It is used when Redis
// is unavailable and in tests.
type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryTokenStore) set(key string, value int64, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
}

// live returns the entry when present and unexpired. Callers hold mu.
func (s *MemoryTokenStore) live(key string) (*memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}

func (s *MemoryTokenStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(key)
	return ok
}

func (s *MemoryTokenStore) del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *MemoryTokenStore) SaveSession(_ context.Context, jti, _ string, ttl time.Duration) error {
	s.set(sessionKey(jti), 1, ttl)
	return nil
}

func (s *MemoryTokenStore) SessionExists(_ context.Context, jti string) (bool, error) {
	return s.has(sessionKey(jti)), nil
}

func (s *MemoryTokenStore) RevokeSession(_ context.Context, jti string) error {
	s.del(sessionKey(jti))
	return nil
}

func (s *MemoryTokenStore) Blacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl > 0 {
		s.set(blacklistKey(jti), 1, ttl)
	}
	return nil
}

func (s *MemoryTokenStore) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return s.has(blacklistKey(jti)), nil
}

func (s *MemoryTokenStore) IncrementAttempts(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := attemptsKey(key)
	if e, ok := s.live(k); ok {
		e.value++
		return e.value, nil
	}
	s.entries[k] = &memoryEntry{value: 1, expiresAt: s.now().Add(window)}
	return 1, nil
}

func (s *MemoryTokenStore) ResetAttempts(_ context.Context, key string) error {
	s.del(attemptsKey(key))
	return nil
}

// Run drops expired entries every interval until ctx is cancelled.
func (s *MemoryTokenStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := s.now()
			for k, e := range s.entries {
				if !now.Before(e.expiresAt) {
					delete(s.entries, k)
				}
			}
			s.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryTokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
