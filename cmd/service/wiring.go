package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	configs "assignment_service/config"
	"assignment_service/internal/cache"
	"assignment_service/internal/directory"
	"assignment_service/internal/events"
	"assignment_service/internal/repository"
	"assignment_service/internal/repository/memory"
	"assignment_service/internal/service"
	"assignment_service/pkg/db"
	"assignment_service/pkg/kafka"
	"assignment_service/pkg/logging"
)

type storage struct {
	repo      service.AssignmentRepository
	directory directory.Source
	close     func()
}

func newStorage(ctx context.Context, cfg *configs.Config, logger *logging.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case configs.StorageDriverMemory:
		dir := directory.NewStatic()
		if cfg.Catalog.File != "" {
			var err error
			if dir, err = directory.LoadStatic(cfg.Catalog.File); err != nil {
				return nil, err
			}
		}
		logger.Info(ctx, "using in-memory storage", zap.String("catalog", cfg.Catalog.File))
		return &storage{repo: memory.NewStore(), directory: dir, close: func() {}}, nil

	case configs.StorageDriverPostgres:
		if cfg.DB.Migrate {
			if err := db.Migrate(cfg.DB.URL); err != nil {
				return nil, err
			}
		}
		pg, err := db.NewPostgres(ctx, db.Config{
			URL:         cfg.DB.URL,
			MaxConns:    cfg.DB.MaxConns,
			ConnRetries: cfg.DB.ConnRetries,
		})
		if err != nil {
			return nil, err
		}
		return &storage{
			repo:      repository.NewAssignmentRepository(pg.Pool()),
			directory: repository.NewDirectoryRepository(pg.Pool()),
			close:     pg.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// withCache puts Redis in front of the directory when an address is
// configured. An unreachable Redis is logged and skipped.
func withCache(ctx context.Context, src directory.Source, cfg configs.RedisConfig, logger *logging.Logger) (directory.Source, func()) {
	if cfg.Addr == "" {
		return src, func() {}
	}

	rdb, err := cache.NewClient(ctx, cache.Config{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err != nil {
		logger.Warn(ctx, "redis unavailable, directory cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		return src, func() {}
	}

	cached := directory.NewCached(src, cache.NewRedisCache(rdb, "assignment_service:directory:"), cfg.TTL, logger)
	return cached, func() { _ = rdb.Close() }
}

// newPublisher returns a publisher that queues status events and sends them
// from a background goroutine. The close func drains the queue within ctx.
func newPublisher(cfg configs.KafkaConfig, logger *logging.Logger) (service.EventPublisher, func(ctx context.Context), error) {
	if len(cfg.Brokers) == 0 {
		return events.NewNop(), func(context.Context) {}, nil
	}

	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:      cfg.Brokers,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	async := events.NewAsyncPublisher(
		events.NewKafkaPublisher(producer, cfg.Topic, events.DefaultRetryPolicy()),
		cfg.QueueSize,
		cfg.WriteTimeout,
		logger,
	)
	closeFn := func(ctx context.Context) {
		if err := async.Close(ctx); err != nil {
			logger.Warn(ctx, "status events left unsent at shutdown", zap.Error(err))
		}
		_ = producer.Close()
	}
	return async, closeFn, nil
}
