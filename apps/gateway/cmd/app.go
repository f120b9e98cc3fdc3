package main

import (
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gateway/apps/gateway/internal/cache"
	"gateway/apps/gateway/internal/config"
	"gateway/apps/gateway/internal/hooks"
	"gateway/apps/gateway/internal/invalidation"
	"gateway/apps/gateway/internal/metrics"
	"gateway/apps/gateway/internal/notification"
	"gateway/apps/gateway/internal/push"
	"gateway/apps/gateway/internal/repository"
	"gateway/apps/gateway/internal/upstream"
)

// app holds the wired services shared by every command.
type app struct {
	hooks    *hooks.Service
	cache    *cache.RedisService
	registry *prometheus.Registry

	redis    *redis.Client
	db       *sql.DB
	enqueuer *push.KafkaEnqueuer
	managers []interface{ DestroyAll() }
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	m := metrics.New(a.registry)

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.cache = cache.NewRedisService(a.redis, cfg.CacheKeyPrefix, logger)

	// Connect to database
	db, err := sql.Open("postgres", cfg.DbURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	// Initialize database tables
	if err := repository.InitMigration(db); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a.enqueuer, err = push.NewKafkaEnqueuer(cfg.KafkaBroker, cfg.KafkaNotificationsTopic, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create push enqueuer: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	ttl := cfg.CacheDefaultTTL

	chains := repository.NewChainsRepository(a.cache, upstream.NewConfigClient(cfg.ConfigServiceURL, httpClient), ttl, logger)

	transactionAPIs := upstream.NewTransactionServiceManager(chains, httpClient, logger)
	balancesAPIs := upstream.NewBalancesServiceManager(chains, httpClient, logger)
	stakingAPIs := upstream.NewStakingServiceManager(chains, cfg.StakingMainnetURL, cfg.StakingTestnetURL, httpClient, logger)
	blockchainAPIs := upstream.NewBlockchainManager(chains, logger)
	a.managers = append(a.managers, transactionAPIs, balancesAPIs, stakingAPIs, blockchainAPIs)

	blockchain := repository.NewBlockchainRepository(blockchainAPIs)
	safes := repository.NewSafeRepository(a.cache, transactionAPIs, blockchain, ttl, logger)
	messages := repository.NewMessagesRepository(a.cache, transactionAPIs, ttl, logger)

	invalidator := invalidation.NewEngine(invalidation.Repositories{
		Safe:         safes,
		Balances:     repository.NewBalancesRepository(a.cache, balancesAPIs, ttl, logger),
		Collectibles: repository.NewCollectiblesRepository(a.cache, transactionAPIs, ttl, logger),
		Messages:     messages,
		Chains:       chains,
		Staking:      repository.NewStakingRepository(a.cache, stakingAPIs, ttl, logger),
		SafeApps:     repository.NewSafeAppsRepository(a.cache, upstream.NewConfigClient(cfg.ConfigServiceURL, httpClient), ttl, logger),
		Blockchain:   blockchain,
	}, m, logger)

	notifier := notification.NewEngine(
		repository.NewSubscriptionRepository(db, logger),
		safes,
		messages,
		repository.NewDelegatesRepository(transactionAPIs),
		a.enqueuer,
		m,
		logger,
	)

	a.hooks = hooks.NewService(invalidator, notifier, cfg.EventTimeout, m, logger).WithChainFilter(chains)
	return a, nil
}

// Close releases every connection the app opened.
func (a *app) Close() error {
	var err error
	for _, mgr := range a.managers {
		mgr.DestroyAll()
	}
	if a.enqueuer != nil {
		err = multierr.Append(err, a.enqueuer.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
