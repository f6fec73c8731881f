package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the quota state lives when shared through Redis.
const DefaultRedisKey = "reddit:ratelimit:state"

// StateStore persists the last observed quota. Load returns nil, nil when nothing is known.
type StateStore interface {
	Load(ctx context.Context) (*QuotaState, error)
	Save(ctx context.Context, s *QuotaState) error
}

// MemoryStore keeps the state in process.
type MemoryStore struct {
	mu    sync.Mutex
	state *QuotaState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*QuotaState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	cp := *m.state
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, s *QuotaState) error {
	if s == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.state = &cp
	return nil
}

// RedisStore shares the quota between processes using the same Reddit account.
// Entries expire when the quota window resets.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store under key; an empty key uses DefaultRedisKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{redis: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) (*QuotaState, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var s QuotaState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode quota state: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Save(ctx context.Context, s *QuotaState) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode quota state: %w", err)
	}

	ttl := time.Until(s.ResetAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.redis.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
