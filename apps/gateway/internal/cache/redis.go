package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisService stores every Dir as a field of a Redis hash. TTLs are applied
// to the hash key, so the most recent Set on a key defines its lifetime.
type RedisService struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedisService(client *redis.Client, prefix string, logger *zap.Logger) *RedisService {
	if client == nil {
		panic("cache.NewRedisService: redis client is nil")
	}
	return &RedisService{client: client, prefix: prefix, logger: logger}
}

func (s *RedisService) Get(ctx context.Context, dir Dir) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key(dir.Key), dir.Field).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("hget %s/%s: %w", dir.Key, dir.Field, err)
	}
	return data, nil
}

func (s *RedisService) Set(ctx context.Context, dir Dir, value []byte, ttl time.Duration) error {
	key := s.key(dir.Key)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, dir.Field, value)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("hset %s/%s: %w", dir.Key, dir.Field, err)
	}
	return nil
}

// DeleteByKey removes every field stored under key. Deleting a missing key is
// not an error.
func (s *RedisService) DeleteByKey(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if s.logger != nil {
		s.logger.Debug("Deleted cache key", zap.String("key", key), zap.Int64("removed", n))
	}
	return nil
}

// Ping checks connectivity to Redis.
func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisService) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}
