package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
)

// region is embedded by every repository that owns cache keys.
type region struct {
	cache  cache.Service
	router cache.Router
	ttl    time.Duration
	logger *zap.Logger
}

func newRegion(svc cache.Service, ttl time.Duration, logger *zap.Logger) region {
	return region{cache: svc, ttl: ttl, logger: logger}
}

func (r region) clear(ctx context.Context, key string) error {
	if err := r.cache.DeleteByKey(ctx, key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}
