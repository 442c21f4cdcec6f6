package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces the per-profile session hash.
const RedisKeyPrefix = "eventsplatform:session:"

// RedisStore keeps the credential in a redis hash, one per client profile.
type RedisStore struct {
	mu     sync.Mutex
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, profile string) *RedisStore {
	return &RedisStore{client: client, key: RedisKeyPrefix + profile}
}

func (s *RedisStore) Set(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.HSet(ctx, s.key, KeyAccessToken, access, KeyRefreshToken, refresh).Err(); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) SetRole(ctx context.Context, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.HSet(ctx, s.key, KeyRole, string(role)).Err(); err != nil {
		return fmt.Errorf("store role: %w", err)
	}
	return nil
}

func (s *RedisStore) Establish(ctx context.Context, c Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key)
		p.HSet(ctx, s.key, toMap(c))
		return nil
	})
	if err != nil {
		return fmt.Errorf("establish session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Credential{}, fmt.Errorf("read session: %w", err)
	}
	return fromMap(m), nil
}
