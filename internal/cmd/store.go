package cmd

import (
	"context"
	"fmt"

	"newsflash/adapter/filestore"
	"newsflash/adapter/postgres"
	"newsflash/adapter/redis"
	"newsflash/adapter/s3store"
	"newsflash/domain"
	"newsflash/internal/config"
	"newsflash/internal/logger"
)

const (
	backendFile     = "file"
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendS3       = "s3"
)

// openStore builds the configured snapshot backend. The returned close func is never nil.
func openStore(ctx context.Context, cfg config.Config, log logger.Logger) (domain.SnapshotStore, func() error, error) {
	noop := func() error { return nil }
	log = log.With(logger.String("backend", cfg.CacheBackend))

	switch cfg.CacheBackend {
	case backendFile, "":
		log.Info("using file cache", logger.String("path", cfg.CacheFile))
		return filestore.New(cfg.CacheFile), noop, nil

	case backendPostgres:
		database, err := postgres.OpenDB(ctx, cfg)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := postgres.New(database, postgres.DefaultTable)
		if err := repo.Ensure(ctx); err != nil {
			_ = database.Close()
			return nil, noop, fmt.Errorf("db ensure failed: %w", err)
		}
		log.Info("using postgres cache", logger.String("host", cfg.PGHost), logger.String("database", cfg.PGDatabase))
		return repo, database.Close, nil

	case backendRedis:
		client, err := redis.NewClient(redis.Config{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, noop, err
		}
		log.Info("using redis cache", logger.String("addr", cfg.RedisAddr))
		return redis.NewStore(client), client.Close, nil

	case backendS3:
		st, err := s3store.New(ctx, s3store.Config{
			Bucket:       cfg.S3Bucket,
			Prefix:       cfg.S3Prefix,
			Region:       cfg.S3Region,
			Profile:      cfg.S3Profile,
			UsePathStyle: cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, noop, err
		}
		log.Info("using s3 cache", logger.String("bucket", cfg.S3Bucket))
		return st, noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown CACHE_BACKEND %q (want file, postgres, redis or s3)", cfg.CacheBackend)
	}
}
