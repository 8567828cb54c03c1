package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/data/db"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// Service opens a migrated, empty ledger database for one test. sqlite files
// live under tb.TempDir(); TEST_POSTGRES_DSN switches to postgres, where the
// tables are truncated (identities restarted) instead.
func Service(tb testing.TB) *db.Service {
	tb.Helper()

	cfg := db.Config{Driver: db.DriverSQLite, SQLitePath: filepath.Join(tb.TempDir(), "gpf_test.db")}
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		cfg = db.Config{Driver: db.DriverPostgres, PostgresDSN: dsn}
	}

	svc, err := db.Open(cfg, Logger(tb))
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })

	if err := svc.AutoMigrateAll(); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	if svc.Driver() == db.DriverPostgres {
		if err := svc.DB().Exec(`TRUNCATE TABLE transactions, employees RESTART IDENTITY CASCADE`).Error; err != nil {
			tb.Fatalf("truncate test db: %v", err)
		}
	}
	return svc
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	return Service(tb).DB()
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
