package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zpgpf/gpf-ledger/internal/data/store"
	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
	"github.com/zpgpf/gpf-ledger/internal/observability"
	"github.com/zpgpf/gpf-ledger/internal/platform/ctxutil"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type LedgerService interface {
	// ListEmployees returns every employee, in id order, each carrying its
	// transactions. A failed per-employee fetch yields an empty list.
	ListEmployees(ctx context.Context) ([]*types.Employee, error)
	GetEmployee(ctx context.Context, employeeID int64) (*types.Employee, error)
	AddEmployee(ctx context.Context, in types.NewEmployee) (*types.Employee, error)
	DeleteEmployee(ctx context.Context, employeeID int64) error
	ReplaceTransactions(ctx context.Context, employeeID int64, in []types.TransactionInput) error
}

type LedgerServiceDeps struct {
	Store            store.Store
	Locker           Locker
	Metrics          *observability.Metrics
	Log              *logger.Logger
	FetchConcurrency int
}

type ledgerService struct {
	store            store.Store
	locker           Locker
	metrics          *observability.Metrics
	log              *logger.Logger
	fetchConcurrency int
	tracer           trace.Tracer
}

func NewLedgerService(deps LedgerServiceDeps) LedgerService {
	locker := deps.Locker
	if locker == nil {
		locker = NewMemoryLocker(deps.Metrics, 0)
	}
	concurrency := deps.FetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	return &ledgerService{
		store:            deps.Store,
		locker:           locker,
		metrics:          deps.Metrics,
		log:              deps.Log.With("service", "LedgerService"),
		fetchConcurrency: concurrency,
		tracer:           otel.Tracer("github.com/zpgpf/gpf-ledger/internal/services"),
	}
}

func (s *ledgerService) ListEmployees(ctx context.Context) ([]*types.Employee, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.ListEmployees")
	defer span.End()

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		s.log.Error("list employees failed", append(ctxutil.LogFields(ctx), "error", err)...)
		return nil, spanError(span, err)
	}
	if employees == nil {
		employees = []*types.Employee{}
	}

	start := time.Now()
	failures := aggregateTransactions(ctx, s.store, employees, s.fetchConcurrency, s.log)
	s.metrics.ObserveAggregate(time.Since(start), failures)
	span.SetAttributes(
		attribute.Int("gpf.employees", len(employees)),
		attribute.Int("gpf.fetch_failures", failures),
	)
	return employees, nil
}

func (s *ledgerService) GetEmployee(ctx context.Context, employeeID int64) (*types.Employee, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.GetEmployee", trace.WithAttributes(attribute.Int64("gpf.employee_id", employeeID)))
	defer span.End()

	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, spanError(span, err)
	}
	txns, err := s.store.ListTransactions(ctx, employeeID)
	if err != nil {
		return nil, spanError(span, err)
	}
	if txns == nil {
		txns = []*types.Transaction{}
	}
	emp.Transactions = txns
	return emp, nil
}

func (s *ledgerService) AddEmployee(ctx context.Context, in types.NewEmployee) (*types.Employee, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.AddEmployee")
	defer span.End()

	if err := in.Validate(); err != nil {
		return nil, spanError(span, err)
	}
	emp := in.Employee()
	id, err := s.store.InsertEmployee(ctx, emp)
	if err != nil {
		s.log.Warn("add employee failed", append(ctxutil.LogFields(ctx), "gpf_account_no", emp.GPFAccountNo, "kind", ledger.KindOf(err), "error", err)...)
		return nil, spanError(span, err)
	}
	emp.ID = id
	emp.Transactions = []*types.Transaction{}
	span.SetAttributes(attribute.Int64("gpf.employee_id", id))
	s.log.Info("employee added", append(ctxutil.LogFields(ctx), "employee_id", id, "gpf_account_no", emp.GPFAccountNo)...)
	return emp, nil
}

func (s *ledgerService) DeleteEmployee(ctx context.Context, employeeID int64) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.DeleteEmployee", trace.WithAttributes(attribute.Int64("gpf.employee_id", employeeID)))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, employeeID)
	if err != nil {
		return spanError(span, err)
	}
	defer unlock()

	if err := s.store.DeleteEmployee(ctx, employeeID); err != nil {
		s.log.Error("delete employee failed", append(ctxutil.LogFields(ctx), "employee_id", employeeID, "error", err)...)
		return spanError(span, err)
	}
	s.log.Info("employee deleted", append(ctxutil.LogFields(ctx), "employee_id", employeeID)...)
	return nil
}

func (s *ledgerService) ReplaceTransactions(ctx context.Context, employeeID int64, in []types.TransactionInput) error {
	ctx, span := s.tracer.Start(ctx, "LedgerService.ReplaceTransactions", trace.WithAttributes(
		attribute.Int64("gpf.employee_id", employeeID),
		attribute.Int("gpf.transactions", len(in)),
	))
	defer span.End()

	unlock, err := s.locker.Lock(ctx, employeeID)
	if err != nil {
		return spanError(span, err)
	}
	defer unlock()

	if err := s.store.ReplaceTransactions(ctx, employeeID, ledger.Transactions(employeeID, in)); err != nil {
		s.log.Warn("replace transactions failed", append(ctxutil.LogFields(ctx), "employee_id", employeeID, "kind", ledger.KindOf(err), "error", err)...)
		return spanError(span, err)
	}
	s.log.Info("transactions replaced", append(ctxutil.LogFields(ctx), "employee_id", employeeID, "count", len(in))...)
	return nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(ledger.KindOf(err)))
	return err
}
