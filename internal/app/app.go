// Package app assembles the configured services of a process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"inkpost/internal/cache"
	"inkpost/internal/config"
	"inkpost/internal/database"
	"inkpost/internal/observability"
	"inkpost/internal/repository"
	"inkpost/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "inkpost"

// Version is stamped at build time.
var Version = "dev"

// App holds the long-lived dependencies and the services built on them.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	Posts    *service.PostService
	Comments *service.CommentService
	Users    *service.UserService

	closers []func(context.Context) error
}

// New builds an App from an open database and an optional redis client.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	uow := repository.NewUnitOfWork(db)
	return &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Posts:    service.NewPostService(uow, cache.NewTagCache(rdb, cfg.TagsCacheTTL())),
		Comments: service.NewCommentService(uow),
		Users:    service.NewUserService(uow),
	}
}

// Bootstrap loads configuration, installs logging and tracing, and connects
// to postgres and, when configured, redis.
func Bootstrap(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	observability.SetLogger(observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat == "json"))

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			// the tag cache degrades to direct reads without redis
			observability.Logger.WarnContext(ctx, "redis unavailable, caching disabled", slog.String("error", err.Error()))
			rdb = nil
		}
	}

	a := New(cfg, db, rdb)
	a.closers = append(a.closers, shutdownTracing)
	if rdb != nil {
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	}
	a.closers = append(a.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	return a, nil
}

// Close releases everything Bootstrap opened, in order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
