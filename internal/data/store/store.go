package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/data/db"
	"github.com/zpgpf/gpf-ledger/internal/data/repos"
	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
	"github.com/zpgpf/gpf-ledger/internal/platform/ctxutil"
	"github.com/zpgpf/gpf-ledger/internal/platform/dbctx"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

// Store is the persistence contract the ledger service depends on. Every
// error it returns is a *ledger.Error.
type Store interface {
	ListEmployees(ctx context.Context) ([]*types.Employee, error)
	GetEmployee(ctx context.Context, employeeID int64) (*types.Employee, error)
	InsertEmployee(ctx context.Context, employee *types.Employee) (int64, error)
	// DeleteEmployee removes the employee and all of its transactions in one
	// unit. Deleting an unknown id succeeds.
	DeleteEmployee(ctx context.Context, employeeID int64) error
	ListTransactions(ctx context.Context, employeeID int64) ([]*types.Transaction, error)
	// ReplaceTransactions swaps the employee's whole transaction set. Either
	// the old set survives untouched or the new one is fully in place.
	ReplaceTransactions(ctx context.Context, employeeID int64, txns []*types.Transaction) error
	Ping(ctx context.Context) error
}

type Deps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Repos  repos.Set
	Runner TxRunner
	Hooks  Hooks
}

func (d Deps) withDefaults() Deps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Repos.Employees == nil || d.Repos.Transactions == nil {
		set := repos.NewSet(d.DB, d.Log)
		if d.Repos.Employees == nil {
			d.Repos.Employees = set.Employees
		}
		if d.Repos.Transactions == nil {
			d.Repos.Transactions = set.Transactions
		}
	}
	return d
}

type gormStore struct {
	deps Deps
	log  *logger.Logger
}

func New(deps Deps) Store {
	deps = deps.withDefaults()
	return &gormStore{deps: deps, log: deps.Log.With("store", "LedgerStore")}
}

func (s *gormStore) ListEmployees(ctx context.Context) ([]*types.Employee, error) {
	const op = "store.ListEmployees"
	var out []*types.Employee
	err := s.observe(ctx, op, func() error {
		rows, err := s.deps.Repos.Employees.List(dbctx.Context{Ctx: ctx})
		out = rows
		return err
	})
	return out, err
}

func (s *gormStore) GetEmployee(ctx context.Context, employeeID int64) (*types.Employee, error) {
	const op = "store.GetEmployee"
	var out *types.Employee
	err := s.observe(ctx, op, func() error {
		rows, err := s.deps.Repos.Employees.GetByIDs(dbctx.Context{Ctx: ctx}, []int64{employeeID})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound(op, employeeID)
		}
		out = rows[0]
		return nil
	})
	return out, err
}

func (s *gormStore) InsertEmployee(ctx context.Context, employee *types.Employee) (int64, error) {
	const op = "store.InsertEmployee"
	var id int64
	err := s.observe(ctx, op, func() error {
		created, err := s.deps.Repos.Employees.Create(dbctx.Context{Ctx: ctx}, employee)
		if err != nil {
			return err
		}
		id = created.ID
		return nil
	})
	return id, err
}

func (s *gormStore) DeleteEmployee(ctx context.Context, employeeID int64) error {
	const op = "store.DeleteEmployee"
	return s.executeWrite(ctx, op, func(dbc dbctx.Context) error {
		removed, err := s.deps.Repos.Transactions.DeleteByEmployeeIDs(dbc, []int64{employeeID})
		if err != nil {
			return err
		}
		n, err := s.deps.Repos.Employees.DeleteByIDs(dbc, []int64{employeeID})
		if err != nil {
			return err
		}
		s.log.Debug("employee deleted", append(ctxutil.LogFields(ctx), "employee_id", employeeID, "rows", n, "transactions_removed", removed)...)
		return nil
	})
}

func (s *gormStore) ListTransactions(ctx context.Context, employeeID int64) ([]*types.Transaction, error) {
	const op = "store.ListTransactions"
	var out []*types.Transaction
	err := s.observe(ctx, op, func() error {
		rows, err := s.deps.Repos.Transactions.ListByEmployeeID(dbctx.Context{Ctx: ctx}, employeeID)
		out = rows
		return err
	})
	return out, err
}

func (s *gormStore) ReplaceTransactions(ctx context.Context, employeeID int64, txns []*types.Transaction) error {
	const op = "store.ReplaceTransactions"
	return s.executeWrite(ctx, op, func(dbc dbctx.Context) error {
		ok, err := s.deps.Repos.Employees.Exists(dbc, employeeID)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(op, employeeID)
		}
		if _, err := s.deps.Repos.Transactions.DeleteByEmployeeIDs(dbc, []int64{employeeID}); err != nil {
			return err
		}
		for _, t := range txns {
			t.EmployeeID = employeeID
		}
		_, err = s.deps.Repos.Transactions.Create(dbc, txns)
		return err
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	const op = "store.Ping"
	return s.observe(ctx, op, func() error {
		sqlDB, err := s.deps.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
}

func (s *gormStore) observe(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := db.ClassifyError(op, fn())
	s.finish(ctx, op, err, time.Since(start))
	return err
}

func (s *gormStore) executeWrite(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	err := db.ClassifyError(op, s.deps.Runner.InTx(ctx, fn))
	s.finish(ctx, op, err, time.Since(start))
	return err
}

func (s *gormStore) finish(ctx context.Context, op string, err error, dur time.Duration) {
	status := operationStatus(err)
	if ledger.IsKind(err, ledger.KindConflict) {
		s.deps.Hooks.IncConflict(op)
	}
	s.deps.Hooks.ObserveOperation(op, status, dur)
	if err != nil && !ledger.IsKind(err, ledger.KindNotFound) {
		s.log.Warn("store operation failed", append(ctxutil.LogFields(ctx), "op", op, "kind", status, "error", err)...)
	}
}

func operationStatus(err error) string {
	if err == nil {
		return "success"
	}
	kind := strings.TrimSpace(string(ledger.KindOf(err)))
	if kind == "" {
		return "failure"
	}
	return kind
}

func notFound(op string, employeeID int64) error {
	return ledger.NewError(ledger.KindNotFound, op, fmt.Sprintf("employee %d not found", employeeID), nil)
}
