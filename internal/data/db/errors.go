package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
)

// ClassifyError maps driver and gorm failures onto ledger error kinds. The
// original driver message is kept as the error message.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *ledger.Error
	if errors.As(err, &le) {
		return err
	}
	return ledger.Wrap(kindOf(err), op, err)
}

func kindOf(err error) ledger.Kind {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ledger.KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ledger.KindConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ledger.KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, driver.ErrBadConn):
		return ledger.KindStorageUnavailable
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if k, ok := sqliteKind(sqliteErr); ok {
			return k
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if k, ok := postgresKind(pgErr.Code); ok {
			return k
		}
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return ledger.KindStorageUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return ledger.KindConflict
	case strings.Contains(msg, "not null constraint"), strings.Contains(msg, "violates not-null"):
		return ledger.KindValidation
	case strings.Contains(msg, "foreign key constraint"):
		return ledger.KindNotFound
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "sql: database is closed"),
		strings.Contains(msg, "timeout"):
		return ledger.KindStorageUnavailable
	default:
		return ledger.KindInternal
	}
}

func sqliteKind(e sqlite3.Error) (ledger.Kind, bool) {
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return ledger.KindConflict, true
	case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
		return ledger.KindValidation, true
	case sqlite3.ErrConstraintForeignKey:
		return ledger.KindNotFound, true
	}
	switch e.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrFull, sqlite3.ErrReadonly:
		return ledger.KindStorageUnavailable, true
	case sqlite3.ErrConstraint:
		return ledger.KindConflict, true
	}
	return "", false
}

func postgresKind(code string) (ledger.Kind, bool) {
	code = strings.TrimSpace(code)
	switch code {
	case "23505": // unique_violation
		return ledger.KindConflict, true
	case "23502", "23514": // not_null_violation, check_violation
		return ledger.KindValidation, true
	case "23503": // foreign_key_violation
		return ledger.KindNotFound, true
	case "57P01", "57P02", "57P03", "53300":
		return ledger.KindStorageUnavailable, true
	}
	if strings.HasPrefix(code, "08") {
		return ledger.KindStorageUnavailable, true
	}
	return "", false
}
