package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// blobStore is the byte-level backend of the plan cache. Get returns (nil, nil) on a miss.
type blobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Tier() string
}

type redisBlobStore struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisBlobStore(client *redis.Client, ttl time.Duration) *redisBlobStore {
	return &redisBlobStore{client: client, ttl: ttl}
}

func (s *redisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	return value, nil
}

func (s *redisBlobStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

func (s *redisBlobStore) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete plan cache keys: %w", err)
	}
	return nil
}

func (s *redisBlobStore) Tier() string {
	return "redis"
}

// lruBlobStore keeps entries in process. It backs the cache when no redis is configured.
type lruBlobStore struct {
	cache *lru.LRU[string, []byte]
}

func newLRUBlobStore(size int, ttl time.Duration) *lruBlobStore {
	if size <= 0 {
		size = 256
	}
	return &lruBlobStore{cache: lru.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *lruBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (s *lruBlobStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, value)
	return nil
}

func (s *lruBlobStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.cache.Remove(key)
	}
	return nil
}

func (s *lruBlobStore) Tier() string {
	return "lru"
}
