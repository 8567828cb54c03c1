package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zpgpf/gpf-ledger/internal/data/db"
	"github.com/zpgpf/gpf-ledger/internal/data/repos"
	httpserver "github.com/zpgpf/gpf-ledger/internal/http"
	"github.com/zpgpf/gpf-ledger/internal/observability"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *db.Service
	Repos    repos.Set
	Services Services
	Metrics  *observability.Metrics
	Server   *httpserver.Server

	redis        redis.UniversalClient
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		SampleRatio: cfg.Otel.SampleRatio,
	})
	metrics := observability.Init(cfg.Metrics.Enabled, log)

	dbService, err := db.Open(cfg.dbConfig(), log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("db automigrate: %w", err)
	}

	rdb, err := openRedis(ctx, cfg.Lock, log)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(dbService, log)
	serviceset := wireServices(dbService, log, cfg, reposet, metrics, rdb)
	handlerset := wireHandlers(log, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadTimeout.Duration,
		WriteTimeout:    cfg.HTTP.WriteTimeout.Duration,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout.Duration,
	}, router, log)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           dbService,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		redis:        rdb,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled. Background collectors share ctx.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB.DB(), a.Cfg.Metrics.ScrapeInterval.Duration)
	if a.redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.redis, a.Cfg.Metrics.ScrapeInterval.Duration)
	}
	a.Log.Info("GPF ledger starting", "addr", a.Cfg.HTTP.Addr, "db_driver", a.DB.Driver())
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("db close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

// openRedis returns nil when no redis address is configured.
func openRedis(ctx context.Context, cfg LockConfig, log *logger.Logger) (redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		log.Info("per-employee write lock: in-process")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("init redis lock backend %s: %w", cfg.RedisAddr, err)
	}
	log.Info("per-employee write lock: redis", "redis_addr", cfg.RedisAddr)
	return rdb, nil
}
