package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ncecere/usage_dashboard/internal/config"
	"github.com/ncecere/usage_dashboard/migrations"
)

// Connect establishes a pgx connection pool for the report cache database.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("database url not configured")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// RunMigrations applies pending goose migrations. Migrations are read from
// cfg.MigrationsDir when it exists on disk, otherwise from the embedded set.
func RunMigrations(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) error {
	if !cfg.RunMigrations || !cfg.Enabled() {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsys := MigrationsFS(cfg.MigrationsDir)

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database for migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("init goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		if res.Source == nil {
			continue
		}
		logger.Info("applied migration", "version", res.Source.Version, "file", filepath.Base(res.Source.Path), "duration", res.Duration)
	}
	return nil
}

// MigrationsFS resolves dir against the working directory and the executable,
// falling back to the migrations compiled into the binary.
func MigrationsFS(dir string) fs.FS {
	if resolved, ok := resolveMigrationsDir(dir); ok {
		return os.DirFS(resolved)
	}
	return migrations.FS
}

func resolveMigrationsDir(dir string) (string, bool) {
	if dir == "" {
		return "", false
	}

	candidates := []string{dir}
	if exe, err := os.Executable(); err == nil && !filepath.IsAbs(dir) {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), dir))
	}

	for _, candidate := range candidates {
		absPath, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(absPath)
		if err == nil && info.IsDir() {
			return absPath, true
		}
	}
	return "", false
}
