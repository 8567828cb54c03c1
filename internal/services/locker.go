package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
	"github.com/zpgpf/gpf-ledger/internal/observability"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

// Locker serializes writes to one employee's ledger. The returned unlock func
// is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, employeeID int64) (unlock func(), err error)
}

type memoryLocker struct {
	mu          sync.Mutex
	slots       map[int64]*lockSlot
	metrics     *observability.Metrics
	waitTimeout time.Duration
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewMemoryLocker returns a process-local keyed lock. A positive waitTimeout
// bounds how long Lock waits on top of the caller's ctx.
func NewMemoryLocker(metrics *observability.Metrics, waitTimeout time.Duration) Locker {
	return &memoryLocker{slots: map[int64]*lockSlot{}, metrics: metrics, waitTimeout: waitTimeout}
}

func (l *memoryLocker) Lock(ctx context.Context, employeeID int64) (func(), error) {
	start := time.Now()

	l.mu.Lock()
	s := l.slots[employeeID]
	if s == nil {
		s = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[employeeID] = s
	}
	s.refs++
	l.mu.Unlock()

	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(employeeID, s)
		l.metrics.ObserveLockWait("memory", "timeout", time.Since(start))
		return nil, lockWaitError(employeeID, ctx.Err())
	}
	l.metrics.ObserveLockWait("memory", "acquired", time.Since(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(employeeID, s)
		})
	}, nil
}

func (l *memoryLocker) release(employeeID int64, s *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, employeeID)
	}
}

type RedisLockerConfig struct {
	Prefix        string
	TTL           time.Duration
	WaitTimeout   time.Duration
	RetryInterval time.Duration
}

func (c RedisLockerConfig) withDefaults() RedisLockerConfig {
	if strings.TrimSpace(c.Prefix) == "" {
		c.Prefix = "gpf:lock:employee:"
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = 50 * time.Millisecond
	}
	return c
}

// Deletes the key only while it still holds our token, so an expired lock
// re-acquired by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb     redis.UniversalClient
	log     *logger.Logger
	metrics *observability.Metrics
	cfg     RedisLockerConfig
}

// NewRedisLocker returns a lock shared by every process using the same redis.
func NewRedisLocker(rdb redis.UniversalClient, log *logger.Logger, metrics *observability.Metrics, cfg RedisLockerConfig) Locker {
	return &redisLocker{
		rdb:     rdb,
		log:     log.With("component", "RedisLocker"),
		metrics: metrics,
		cfg:     cfg.withDefaults(),
	}
}

func (l *redisLocker) Lock(ctx context.Context, employeeID int64) (func(), error) {
	start := time.Now()
	key := fmt.Sprintf("%s%d", l.cfg.Prefix, employeeID)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	for {
		ok, err := l.rdb.SetNX(waitCtx, key, token, l.cfg.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			l.metrics.ObserveLockWait("redis", "error", time.Since(start))
			return nil, ledger.NewError(ledger.KindStorageUnavailable, "locker.redis", "lock backend unavailable: "+err.Error(), err)
		}
		if ok {
			l.metrics.ObserveLockWait("redis", "acquired", time.Since(start))
			return l.unlockFunc(key, token), nil
		}
		select {
		case <-waitCtx.Done():
			l.metrics.ObserveLockWait("redis", "timeout", time.Since(start))
			return nil, lockWaitError(employeeID, waitCtx.Err())
		case <-time.After(l.cfg.RetryInterval):
		}
	}
}

func (l *redisLocker) unlockFunc(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				l.log.Warn("lock release failed; key will expire", "key", key, "error", err)
			}
		})
	}
}

func lockWaitError(employeeID int64, cause error) error {
	return ledger.NewError(ledger.KindStorageUnavailable, "locker.lock",
		fmt.Sprintf("timed out waiting for write lock on employee %d", employeeID), cause)
}
