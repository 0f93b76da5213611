package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"batterypower/backend/libs/db"
	libredis "batterypower/backend/libs/redis"
	"batterypower/backend/services/battery-service/internal/config"
	httpserver "batterypower/backend/services/battery-service/internal/http"
	"batterypower/backend/services/battery-service/internal/http/handlers"
	"batterypower/backend/services/battery-service/internal/metrics"
	redisstore "batterypower/backend/services/battery-service/internal/redis"
	"batterypower/backend/services/battery-service/internal/repository"
	"batterypower/backend/services/battery-service/internal/service"
	"batterypower/backend/services/battery-service/internal/stream"
)

// App wires battery service dependencies.
type App struct {
	server *httpserver.Server
	hub    *stream.Hub
	db     *sql.DB
	redis  *redis.Client
	logger *zap.Logger
}

// New constructs application components.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.newStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := service.Options{
		Source: service.NewCSVSource(cfg.Data.CSVPath, time.Local),
	}

	if cfg.Redis.Addr != "" {
		client, err := libredis.NewRedisClient(ctx, libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client

		cache := redisstore.NewLatestCache(client, cfg.Redis.TTL)
		// An in-memory log starts empty, so a cached reading from a previous run is stale.
		if cfg.Storage.Driver == config.StorageMemory {
			if err := cache.Clear(ctx); err != nil {
				logger.Warn("failed to clear latest reading cache", zap.Error(err))
			}
		}
		opts.Cache = cache
	}

	a.hub = stream.NewHub(cfg.Stream.PingInterval, cfg.Stream.WriteTimeout, logger)
	opts.Publisher = a.hub

	batteryService := service.NewTelemetryService(store, logger, opts)

	routes := httpserver.Routes{
		Status:  handlers.NewStatusHandler(batteryService, logger),
		Current: handlers.NewCurrentHandler(batteryService),
		History: handlers.NewHistoryHandler(batteryService),
		Load:    handlers.NewLoadHandler(batteryService, logger),
		Stream:  http.HandlerFunc(a.hub.HandleWS),
		Health:  handlers.NewHealthHandler(),
		Metrics: metrics.Handler(),
	}

	router := httpserver.NewRouter(routes, logger)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router, logger)
	a.server.RegisterOnShutdown(a.hub.Close)

	logger.Info("battery service configured",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("csv_path", cfg.Data.CSVPath),
		zap.Bool("redis_cache", a.redis != nil),
	)
	return a, nil
}

func (a *App) newStore(ctx context.Context, cfg *config.Config) (repository.ReadingStore, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		return repository.NewMemoryStore(), nil
	}

	sqlDB, err := db.NewPostgresDB(ctx, cfg.Database.DSN, db.PoolOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.db = sqlDB

	store := repository.NewPostgresStore(sqlDB)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

// Run starts serving HTTP requests.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
