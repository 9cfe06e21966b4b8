package cli

import (
	"context"
	"fmt"

	"github.com/Apie2c/quiz-app/internal/app"
	"github.com/Apie2c/quiz-app/internal/config"
	"github.com/Apie2c/quiz-app/internal/infra/memory"
	mongostore "github.com/Apie2c/quiz-app/internal/infra/mongo"
	pgstore "github.com/Apie2c/quiz-app/internal/infra/postgres"
	redisstore "github.com/Apie2c/quiz-app/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// openStore builds the document store selected by storage.driver, optionally behind a cache.
// The returned close function releases every client that was opened.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (app.DocumentStore, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	id := cfg.Storage.DocumentID
	var store app.DocumentStore
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = memory.NewDocumentStore(id)
	case config.DriverRedis:
		if redisClient == nil {
			closeAll()
			return nil, nil, fmt.Errorf("redis addr not configured")
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		store = redisstore.NewDocumentStore(redisClient, id)
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			closeAll()
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		store = pgstore.NewDocumentStore(pool, id)
	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			closeAll()
			return nil, nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		store = mongostore.NewDocumentStore(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection, id)
	default:
		closeAll()
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Cache.TTL != "" && cfg.Storage.Driver != config.DriverMemory {
		ttl := config.TTLDuration(cfg.Cache.TTL, 0)
		if ttl > 0 {
			if redisClient != nil && cfg.Storage.Driver != config.DriverRedis {
				store = redisstore.NewCachedStore(redisClient, store, id, ttl)
			} else {
				store = memory.NewCachedStore(store, ttl)
			}
		}
	}

	log.Info().
		Str("driver", cfg.Storage.Driver).
		Str("document_id", id).
		Str("cache_ttl", cfg.Cache.TTL).
		Msg("Document store ready")
	return store, closeAll, nil
}
