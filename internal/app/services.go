package app

import (
	"github.com/redis/go-redis/v9"

	"github.com/zpgpf/gpf-ledger/internal/data/db"
	"github.com/zpgpf/gpf-ledger/internal/data/repos"
	"github.com/zpgpf/gpf-ledger/internal/data/store"
	"github.com/zpgpf/gpf-ledger/internal/observability"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
	"github.com/zpgpf/gpf-ledger/internal/services"
)

type Services struct {
	Store  store.Store
	Locker services.Locker
	Ledger services.LedgerService
}

func wireServices(dbService *db.Service, log *logger.Logger, cfg Config, reposet repos.Set, metrics *observability.Metrics, rdb redis.UniversalClient) Services {
	log.Info("Wiring services...")

	st := store.New(store.Deps{
		DB:    dbService.DB(),
		Log:   log,
		Repos: reposet,
		Hooks: store.NewObservabilityHooks(metrics),
	})

	var locker services.Locker
	if rdb != nil {
		locker = services.NewRedisLocker(rdb, log, metrics, services.RedisLockerConfig{
			TTL:         cfg.Lock.TTL.Duration,
			WaitTimeout: cfg.Lock.WaitTimeout.Duration,
		})
	} else {
		locker = services.NewMemoryLocker(metrics, cfg.Lock.WaitTimeout.Duration)
	}

	return Services{
		Store:  st,
		Locker: locker,
		Ledger: services.NewLedgerService(services.LedgerServiceDeps{
			Store:            st,
			Locker:           locker,
			Metrics:          metrics,
			Log:              log,
			FetchConcurrency: cfg.Ledger.FetchConcurrency,
		}),
	}
}
