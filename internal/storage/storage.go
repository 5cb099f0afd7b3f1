// Package storage opens the KV backend selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/sourcebin/internal/config"
	"github.com/sakif/sourcebin/internal/repository"
	"github.com/sakif/sourcebin/internal/repository/memory"
	"github.com/sakif/sourcebin/internal/repository/minio"
	"github.com/sakif/sourcebin/internal/repository/mysql"
	"github.com/sakif/sourcebin/internal/repository/redis"
	"github.com/sakif/sourcebin/internal/repository/sqlite"
)

// Open connects to cfg.StoreBackend and wraps it with tracing. The caller
// owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.KVStore, error) {
	store, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreBackend, err)
	}
	logger.Info("store opened", slog.String("backend", cfg.StoreBackend))
	return repository.Traced(store, cfg.StoreBackend), nil
}

func open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.KVStore, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		if cfg.DBPath != ":memory:" {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		return sqlite.New(cfg.DBPath)
	case config.BackendMySQL:
		return mysql.New(ctx, cfg.MySQLDSN)
	case config.BackendRedis:
		return redis.New(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	case config.BackendMinIO:
		return minio.New(ctx, minio.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucketName,
			UseSSL:    cfg.MinIOUseSSL,
		}, logger)
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.StoreBackend)
	}
}
