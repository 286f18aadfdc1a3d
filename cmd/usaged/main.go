package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ncecere/usage_dashboard/internal/app"
	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/internal/database"
	"github.com/ncecere/usage_dashboard/internal/httpserver"
	"github.com/ncecere/usage_dashboard/internal/observability"
	"github.com/ncecere/usage_dashboard/internal/redisclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	slog.SetDefault(logger)

	var dbPool *pgxpool.Pool
	if cfg.Database.Enabled() {
		if err := database.RunMigrations(ctx, cfg.Database, logger); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		dbPool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("connect database: %v", err)
		}
		defer dbPool.Close()
	} else {
		logger.Info("database not configured, durable report cache disabled")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redisclient.New(cfg.Redis)
		if err := redisclient.Ping(ctx, redisClient); err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Info("redis not configured, using in-process report cache")
	}

	container, err := app.NewContainer(ctx, cfg, dbPool, redisClient, logger)
	if err != nil {
		log.Fatalf("build container: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability shutdown", "error", err)
		}
	}()

	startReportCacheSweeper(ctx, container, cfg.ReportCache)
	container.Health.Start(ctx)

	server, err := httpserver.New(container)
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}

	logger.Info("usage dashboard listening", "addr", cfg.Server.ListenAddr, "upstream", cfg.Upstream.BaseURL)
	if err := server.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server stopped: %v", err)
	}
}

func startReportCacheSweeper(ctx context.Context, container *app.Container, cfg config.ReportCacheConfig) {
	if container.ReportStore == nil && container.MemoryCache == nil {
		return
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		run := func() {
			removed, err := container.SweepReportCache(ctx)
			if err != nil {
				container.Logger.Warn("report cache sweep failed", "error", err)
				return
			}
			if removed > 0 {
				container.Logger.Debug("report cache swept", "removed", removed)
			}
		}
		run()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
