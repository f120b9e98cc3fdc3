package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// GetOrFetch reads dir from the cache and falls back to fetch on a miss,
// storing the fetched value for ttl. Cache failures never fail the read.
func GetOrFetch[T any](ctx context.Context, svc Service, logger *zap.Logger, dir Dir, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if data, err := svc.Get(ctx, dir); err != nil {
		logger.Warn("Cache read failed", zap.String("key", dir.Key), zap.String("field", dir.Field), zap.Error(err))
	} else if data != nil {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		logger.Warn("Discarding undecodable cache entry", zap.String("key", dir.Key), zap.String("field", dir.Field))
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode cache entry", zap.String("key", dir.Key), zap.Error(err))
		return value, nil
	}
	if err := svc.Set(ctx, dir, data, ttl); err != nil {
		logger.Warn("Cache write failed", zap.String("key", dir.Key), zap.String("field", dir.Field), zap.Error(err))
	}
	return value, nil
}
