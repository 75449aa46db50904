package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/api/handler"
	"github.com/delcom/travel-log/internal/core/ports"
	"github.com/delcom/travel-log/internal/infrastructure/config"
	"github.com/delcom/travel-log/internal/infrastructure/db/mongo"
	"github.com/delcom/travel-log/internal/infrastructure/db/postgres"
	"github.com/delcom/travel-log/internal/infrastructure/db/redis"
	"github.com/delcom/travel-log/internal/infrastructure/storage"
)

// stores is the set of backends selected by configuration.
type stores struct {
	users      ports.UserRepository
	tokens     ports.TokenRepository
	travelLogs ports.TravelLogRepository
	files      ports.FileStorage

	checks  map[string]handler.CheckFunc
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	s := &stores{checks: make(map[string]handler.CheckFunc)}

	ok := false
	defer func() {
		if !ok {
			s.close()
		}
	}()

	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Disconnect(context.Background()) })

		repos := mongo.NewRepositories(db, cfg.JWT.TTL)
		if err := repos.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		s.users, s.tokens, s.travelLogs = repos.Users, repos.Tokens, repos.TravelLogs
		s.checks["mongodb"] = mongo.Ping(db)
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = db.Close() })

		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		repos := postgres.NewRepositories(db)
		s.users, s.tokens, s.travelLogs = repos.Users, repos.Tokens, repos.TravelLogs
		s.checks["postgres"] = postgres.Ping(db)
		log.Info().Msg("connected to postgres")

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if cfg.UsesRedis() {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = client.Close() })

		s.tokens = redis.NewTokenRepository(client, cfg.JWT.TTL)
		s.checks["redis"] = redis.Ping(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("sessions stored in redis")
	}

	switch cfg.Files.Backend {
	case config.FilesS3:
		files, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		s.files = files
		s.checks["s3"] = files.Ping
	default:
		files := storage.NewLocal(cfg.Files.UploadDir)
		s.files = files
		s.checks["files"] = files.Ping
	}

	ok = true
	return s, nil
}
