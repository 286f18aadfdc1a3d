package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ncecere/usage_dashboard/internal/cache"
	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/internal/credits"
	"github.com/ncecere/usage_dashboard/internal/db"
	"github.com/ncecere/usage_dashboard/internal/health"
	"github.com/ncecere/usage_dashboard/internal/limits"
	"github.com/ncecere/usage_dashboard/internal/observability"
	"github.com/ncecere/usage_dashboard/internal/reports"
	usageservice "github.com/ncecere/usage_dashboard/internal/services/usage"
	"github.com/ncecere/usage_dashboard/internal/upstream"
)

// Container aggregates runtime dependencies for handlers and services.
// DBPool and Redis are optional; the matching cache tiers are skipped without them.
type Container struct {
	Config        *config.Config
	DBPool        *pgxpool.Pool
	Redis         *redis.Client
	Logger        *slog.Logger
	Observability *observability.Provider
	Upstream      *upstream.Client
	Calculator    *credits.Calculator
	ReportStore   *reports.PostgresStore
	MemoryCache   *cache.MemoryCache
	Reports       *reports.Resolver
	UsageService  *usageservice.Service
	RateLimiter   *limits.RateLimiter
	Health        *health.Monitor
}

// NewContainer builds a dependency container from the provided primitives.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	client := upstream.New(cfg.Upstream,
		upstream.WithRecorder(obsProvider),
		upstream.WithLogger(logger),
	)

	resolverOpts := reports.Options{
		Concurrency:  cfg.Upstream.MaxConcurrency,
		FetchTimeout: cfg.Upstream.Timeout * time.Duration(cfg.Upstream.MaxRetries+1),
		Recorder:     obsProvider,
		Logger:       logger,
	}

	container := &Container{
		Config:        cfg,
		DBPool:        pool,
		Redis:         redisClient,
		Logger:        logger,
		Observability: obsProvider,
		Upstream:      client,
		Calculator:    credits.FromConfig(cfg.Credits),
	}

	if redisClient != nil {
		resolverOpts.Cache = cache.NewReportCache(redisClient, cfg.ReportCache.TTL)
	} else {
		container.MemoryCache = cache.NewMemoryCache(cfg.ReportCache.TTL)
		resolverOpts.Cache = container.MemoryCache
	}
	if pool != nil {
		container.ReportStore = reports.NewPostgresStore(db.New(pool), cfg.ReportCache.TTL)
		resolverOpts.Store = container.ReportStore
	}

	container.Reports = reports.NewResolver(client, resolverOpts)
	container.UsageService = usageservice.NewService(client, container.Reports, container.Calculator, obsProvider, logger)
	container.RateLimiter = limits.NewRateLimiter(redisClient, cfg.RateLimits.RequestsPerMinute)
	container.Health = health.NewMonitor(cfg.Health, logger)
	container.Health.Register("upstream", client.Ping)

	return container, nil
}

// SweepReportCache drops expired report metadata from the durable and in-process tiers.
func (c *Container) SweepReportCache(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	var removed int64
	if c.MemoryCache != nil {
		removed += int64(c.MemoryCache.Sweep())
	}
	if c.ReportStore != nil {
		n, err := c.ReportStore.DeleteExpired(ctx)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

// Shutdown flushes telemetry. Pools are owned and closed by the caller.
func (c *Container) Shutdown(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.Observability.Shutdown(ctx)
}
