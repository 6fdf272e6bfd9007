package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingStore tracks in-progress two-factor challenges: a random
// challenge ID mapped to the account awaiting its code.  Entries expire on
// their own; a successful verification deletes eagerly.
type PendingStore interface {
	Put(ctx context.Context, challengeID string, userID uint64, ttl time.Duration) error
	Get(ctx context.Context, challengeID string) (uint64, error)
	Delete(ctx context.Context, challengeID string) error
}

var errChallengeNotFound = errors.New("challenge not found")

// RedisPendingStore keeps challenges in Redis so any instance behind a
// load balancer can complete a login another instance started.
type RedisPendingStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{Client: client, Prefix: "2fa"}
}

func (s *RedisPendingStore) key(id string) string { return s.Prefix + ":" + id }

func (s *RedisPendingStore) Put(ctx context.Context, challengeID string, userID uint64, ttl time.Duration) error {
	return s.Client.Set(ctx, s.key(challengeID), strconv.FormatUint(userID, 10), ttl).Err()
}

func (s *RedisPendingStore) Get(ctx context.Context, challengeID string) (uint64, error) {
	v, err := s.Client.Get(ctx, s.key(challengeID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, errChallengeNotFound
		}
		return 0, err
	}
	return strconv.ParseUint(v, 10, 64)
}

func (s *RedisPendingStore) Delete(ctx context.Context, challengeID string) error {
	return s.Client.Del(ctx, s.key(challengeID)).Err()
}

// MemoryPendingStore is the fallback when Redis is unavailable, matching
// the degrade-gracefully behavior of the rate limiter and cache.  Expiry
// is checked on read; stale entries are dropped lazily.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]memoryChallenge
}

type memoryChallenge struct {
	userID    uint64
	expiresAt time.Time
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{entries: make(map[string]memoryChallenge)}
}

func (s *MemoryPendingStore) Put(_ context.Context, challengeID string, userID uint64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[challengeID] = memoryChallenge{userID: userID, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryPendingStore) Get(_ context.Context, challengeID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[challengeID]
	if !ok {
		return 0, errChallengeNotFound
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, challengeID)
		return 0, errChallengeNotFound
	}
	return e.userID, nil
}

func (s *MemoryPendingStore) Delete(_ context.Context, challengeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, challengeID)
	return nil
}
