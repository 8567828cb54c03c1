package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/zpgpf/gpf-ledger/internal/platform/ctxutil"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

// gormZap routes gorm's SQL log through the service logger.
type gormZap struct {
	log   *logger.Logger
	level gormLogger.LogLevel
	slow  time.Duration
}

func NewGormLogger(log *logger.Logger, slow time.Duration) gormLogger.Interface {
	return &gormZap{log: log.With("component", "gorm"), level: gormLogger.Warn, slow: slow}
}

func (g *gormZap) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *gormZap) Info(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormLogger.Info {
		g.log.Info(fmt.Sprintf(msg, args...), ctxutil.LogFields(ctx)...)
	}
}

func (g *gormZap) Warn(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormLogger.Warn {
		g.log.Warn(fmt.Sprintf(msg, args...), ctxutil.LogFields(ctx)...)
	}
}

func (g *gormZap) Error(ctx context.Context, msg string, args ...interface{}) {
	if g.level >= gormLogger.Error {
		g.log.Error(fmt.Sprintf(msg, args...), ctxutil.LogFields(ctx)...)
	}
}

func (g *gormZap) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && g.level >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		fields := append([]interface{}{"error", err, "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds()}, ctxutil.LogFields(ctx)...)
		g.log.Warn("SQL error", fields...)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormLogger.Warn:
		sql, rows := fc()
		fields := append([]interface{}{"sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds()}, ctxutil.LogFields(ctx)...)
		g.log.Warn("Slow SQL", fields...)
	case g.level >= gormLogger.Info:
		sql, rows := fc()
		g.log.Debug("SQL", "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	}
}
