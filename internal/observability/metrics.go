package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *Counter

	storeOps       *CounterVec
	storeLatency   *HistogramVec
	storeConflicts *CounterVec

	aggregateRuns          *Counter
	aggregateFetchFailures *Counter
	aggregateLatency       *HistogramVec

	lockWait *HistogramVec

	dbPool  *GaugeVec
	redisUp *Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once. It returns nil when disabled;
// every Metrics method is a no-op on a nil receiver.
func Init(enabled bool, log *logger.Logger) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func New() *Metrics {
	latency := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	return &Metrics{
		apiRequests: NewCounterVec("gpf_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("gpf_api_request_duration_seconds", "API request latency in seconds by method/route/status.", []string{"method", "route", "status"}, latency),
		apiInflight: NewGauge("gpf_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("gpf_api_server_errors_total", "API responses with a 5xx status."),

		storeOps:       NewCounterVec("gpf_store_operations_total", "Store operations by op/status.", []string{"op", "status"}),
		storeLatency:   NewHistogramVec("gpf_store_operation_duration_seconds", "Store operation latency in seconds by op.", []string{"op"}, latency),
		storeConflicts: NewCounterVec("gpf_store_conflicts_total", "Store writes rejected by a uniqueness constraint.", []string{"op"}),

		aggregateRuns:          NewCounter("gpf_aggregate_runs_total", "Employee ledger aggregations served."),
		aggregateFetchFailures: NewCounter("gpf_aggregate_fetch_failures_total", "Per-employee transaction fetches that failed during aggregation."),
		aggregateLatency:       NewHistogramVec("gpf_aggregate_duration_seconds", "Employee ledger aggregation latency in seconds.", nil, latency),

		lockWait: NewHistogramVec("gpf_lock_wait_seconds", "Time spent acquiring per-employee write locks.", []string{"backend", "outcome"}, latency),

		dbPool:  NewGaugeVec("gpf_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp: NewGauge("gpf_redis_up", "1 when the lock backend answered the last ping."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	collectors := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.storeOps, m.storeLatency, m.storeConflicts,
		m.aggregateRuns, m.aggregateFetchFailures, m.aggregateLatency,
		m.lockWait,
		m.dbPool, m.redisUp,
	}
	for _, c := range collectors {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method = orDefault(method, "UNKNOWN")
	route = orDefault(route, "unmatched")
	status = orDefault(status, "0")
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if strings.HasPrefix(status, "5") {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStoreOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	op = orDefault(op, "unknown")
	m.storeOps.Inc(op, orDefault(status, "unknown"))
	m.storeLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) IncStoreConflict(op string) {
	if m == nil {
		return
	}
	m.storeConflicts.Inc(orDefault(op, "unknown"))
}

func (m *Metrics) ObserveAggregate(dur time.Duration, fetchFailures int) {
	if m == nil {
		return
	}
	m.aggregateRuns.Inc()
	m.aggregateLatency.Observe(dur.Seconds())
	if fetchFailures > 0 {
		m.aggregateFetchFailures.Add(float64(fetchFailures))
	}
}

func (m *Metrics) ObserveLockWait(backend, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(dur.Seconds(), orDefault(backend, "unknown"), orDefault(outcome, "unknown"))
}

// StartDBCollector samples pool statistics until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbPool.Set(float64(stats.OpenConnections), "open_connections")
				m.dbPool.Set(float64(stats.InUse), "in_use")
				m.dbPool.Set(float64(stats.Idle), "idle")
				m.dbPool.Set(float64(stats.WaitCount), "wait_count")
				m.dbPool.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbPool.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings the lock backend until ctx is done. The client
// is owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
