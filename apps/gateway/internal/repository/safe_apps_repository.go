package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/upstream"
)

type SafeAppsRepository struct {
	region
	config upstream.ConfigService
}

func NewSafeAppsRepository(svc cache.Service, config upstream.ConfigService, ttl time.Duration, logger *zap.Logger) *SafeAppsRepository {
	return &SafeAppsRepository{region: newRegion(svc, ttl, logger), config: config}
}

func (r *SafeAppsRepository) GetSafeApps(ctx context.Context, chainID string) ([]upstream.SafeApp, error) {
	return cache.GetOrFetch(ctx, r.cache, r.logger, r.router.SafeAppsDir(chainID), r.ttl, func(ctx context.Context) ([]upstream.SafeApp, error) {
		return r.config.GetSafeApps(ctx, chainID)
	})
}

func (r *SafeAppsRepository) ClearSafeApps(ctx context.Context, chainID string) error {
	return r.clear(ctx, r.router.SafeAppsKey(chainID))
}
