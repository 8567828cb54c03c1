package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zpgpf/gpf-ledger/internal/data/repos"
	repoledger "github.com/zpgpf/gpf-ledger/internal/data/repos/ledger"
	"github.com/zpgpf/gpf-ledger/internal/data/repos/testutil"
	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
	"github.com/zpgpf/gpf-ledger/internal/platform/dbctx"
)

type operationEvent struct {
	Name   string
	Status string
}

type recordingHooks struct {
	mu         sync.Mutex
	Operations []operationEvent
	Conflicts  []string
}

func (h *recordingHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, operationEvent{Name: name, Status: status})
}

func (h *recordingHooks) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

// failAfterFirstRepo inserts the first transaction then fails, leaving the
// surrounding unit half done.
type failAfterFirstRepo struct {
	repoledger.TransactionRepo
}

func (r failAfterFirstRepo) Create(dbc dbctx.Context, txns []*types.Transaction) ([]*types.Transaction, error) {
	if len(txns) > 0 {
		if _, err := r.TransactionRepo.Create(dbc, txns[:1]); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("simulated write failure")
}

// failingDeleteRepo refuses to remove transactions.
type failingDeleteRepo struct {
	repoledger.TransactionRepo
}

func (r failingDeleteRepo) DeleteByEmployeeIDs(dbctx.Context, []int64) (int64, error) {
	return 0, errors.New("simulated delete failure")
}

// countingEmployeeRepo records whether the employee delete step ran.
type countingEmployeeRepo struct {
	repoledger.EmployeeRepo
	deletes *int
}

func (r countingEmployeeRepo) DeleteByIDs(dbc dbctx.Context, ids []int64) (int64, error) {
	*r.deletes++
	return r.EmployeeRepo.DeleteByIDs(dbc, ids)
}

func newTestStore(t *testing.T, hooks Hooks) (Store, Deps) {
	t.Helper()
	db := testutil.DB(t)
	deps := Deps{DB: db, Log: testutil.Logger(t), Hooks: hooks}
	return New(deps), deps.withDefaults()
}

func txInputs(months ...string) []*types.Transaction {
	out := make([]*types.Transaction, 0, len(months))
	for i, m := range months {
		out = append(out, &types.Transaction{Month: m, Subscription: int64(100 * (i + 1))})
	}
	return out
}

func TestInsertAndGetEmployee(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	id, err := s.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "Ravi"})
	if err != nil {
		t.Fatalf("InsertEmployee: %v", err)
	}
	if id != 1 {
		t.Fatalf("first id on a fresh db: got %d", id)
	}
	emp, err := s.GetEmployee(ctx, id)
	if err != nil || emp.Name != "Ravi" || emp.OpeningBalance != 0 {
		t.Fatalf("GetEmployee: err=%v emp=%+v", err, emp)
	}
	if _, err := s.GetEmployee(ctx, 404); !ledger.IsKind(err, ledger.KindNotFound) {
		t.Fatalf("GetEmployee unknown: want not_found got %v", err)
	}
}

func TestInsertEmployeeDuplicateAccountIsConflict(t *testing.T) {
	hooks := &recordingHooks{}
	s, _ := newTestStore(t, hooks)
	ctx := context.Background()

	if _, err := s.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "A"}); err != nil {
		t.Fatalf("InsertEmployee: %v", err)
	}
	_, err := s.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "B"})
	if !ledger.IsKind(err, ledger.KindConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if ledger.MessageOf(err) == "" {
		t.Fatalf("storage message should be preserved")
	}
	if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "store.InsertEmployee" {
		t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
	}
	last := hooks.Operations[len(hooks.Operations)-1]
	if last.Status != string(ledger.KindConflict) {
		t.Fatalf("operation status: %+v", last)
	}
}

func TestDeleteEmployeeCascades(t *testing.T) {
	s, deps := newTestStore(t, nil)
	ctx := context.Background()

	a, _ := s.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "A"})
	b, _ := s.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF002", Name: "B"})
	if err := s.ReplaceTransactions(ctx, a, txInputs("Apr", "May")); err != nil {
		t.Fatalf("ReplaceTransactions a: %v", err)
	}
	if err := s.ReplaceTransactions(ctx, b, txInputs("Apr")); err != nil {
		t.Fatalf("ReplaceTransactions b: %v", err)
	}

	if err := s.DeleteEmployee(ctx, a); err != nil {
		t.Fatalf("DeleteEmployee: %v", err)
	}
	emps, err := s.ListEmployees(ctx)
	if err != nil || len(emps) != 1 || emps[0].ID != b {
		t.Fatalf("ListEmployees after delete: err=%v emps=%v", err, emps)
	}
	if n := testutil.CountTransactions(t, deps.DB); n != 1 {
		t.Fatalf("orphaned transactions: %d rows left, want 1", n)
	}

	if err := s.DeleteEmployee(ctx, a); err != nil {
		t.Fatalf("deleting an unknown id should succeed: %v", err)
	}
}

func TestReplaceTransactionsReplacesWholeSet(t *testing.T) {
	s, _ := newTestStore(t, nil)
	ctx := context.Background()

	id, _ := s.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "A"})

	if err := s.ReplaceTransactions(ctx, id, txInputs("Apr", "May", "Jun")); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if err := s.ReplaceTransactions(ctx, id, txInputs("Jul")); err != nil {
		t.Fatalf("second replace: %v", err)
	}
	got, err := s.ListTransactions(ctx, id)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 1 || got[0].Month != "Jul" || got[0].EmployeeID != id {
		t.Fatalf("unexpected set after replace: %+v", got)
	}

	if err := s.ReplaceTransactions(ctx, id, nil); err != nil {
		t.Fatalf("empty replace: %v", err)
	}
	got, err = s.ListTransactions(ctx, id)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty replace should clear the set: err=%v got=%v", err, got)
	}
}

func TestReplaceTransactionsUnknownEmployee(t *testing.T) {
	s, deps := newTestStore(t, nil)
	ctx := context.Background()

	err := s.ReplaceTransactions(ctx, 77, txInputs("Apr"))
	if !ledger.IsKind(err, ledger.KindNotFound) {
		t.Fatalf("want not_found, got %v", err)
	}
	if n := testutil.CountTransactions(t, deps.DB); n != 0 {
		t.Fatalf("rows written for unknown employee: %d", n)
	}
}

func TestReplaceTransactionsRollsBackOnFailure(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	set := repos.NewSet(db, log)
	good := New(Deps{DB: db, Log: log, Repos: set})
	bad := New(Deps{DB: db, Log: log, Repos: repos.Set{
		Employees:    set.Employees,
		Transactions: failAfterFirstRepo{TransactionRepo: set.Transactions},
	}})

	id, _ := good.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "A"})
	if err := good.ReplaceTransactions(ctx, id, txInputs("Apr", "May")); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	err := bad.ReplaceTransactions(ctx, id, txInputs("Jun", "Jul", "Aug"))
	if err == nil {
		t.Fatalf("expected failure")
	}
	if ledger.KindOf(err) == "" {
		t.Fatalf("store errors must carry a kind: %v", err)
	}

	got, err := good.ListTransactions(ctx, id)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 2 || got[0].Month != "Apr" || got[1].Month != "May" {
		t.Fatalf("prior set not preserved: %+v", got)
	}
}

func TestDeleteEmployeeStopsWhenTransactionDeleteFails(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	set := repos.NewSet(db, log)
	good := New(Deps{DB: db, Log: log, Repos: set})
	deletes := 0
	bad := New(Deps{DB: db, Log: log, Repos: repos.Set{
		Employees:    countingEmployeeRepo{EmployeeRepo: set.Employees, deletes: &deletes},
		Transactions: failingDeleteRepo{TransactionRepo: set.Transactions},
	}})

	id, _ := good.InsertEmployee(ctx, &types.Employee{GPFAccountNo: "GPF001", Name: "A"})
	if err := good.ReplaceTransactions(ctx, id, txInputs("Apr", "May")); err != nil {
		t.Fatalf("seed replace: %v", err)
	}

	err := bad.DeleteEmployee(ctx, id)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if ledger.KindOf(err) == "" {
		t.Fatalf("store errors must carry a kind: %v", err)
	}
	if deletes != 0 {
		t.Fatalf("employee delete ran after the transaction delete failed")
	}

	emp, err := good.GetEmployee(ctx, id)
	if err != nil || emp.ID != id {
		t.Fatalf("employee should survive: err=%v emp=%+v", err, emp)
	}
	got, err := good.ListTransactions(ctx, id)
	if err != nil || len(got) != 2 {
		t.Fatalf("transactions should survive: err=%v got=%+v", err, got)
	}
}

func TestPing(t *testing.T) {
	s, _ := newTestStore(t, nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOperationStatus(t *testing.T) {
	if got := operationStatus(nil); got != "success" {
		t.Fatalf("nil: got %s", got)
	}
	if got := operationStatus(errors.New("x")); got != "failure" {
		t.Fatalf("plain: got %s", got)
	}
	if got := operationStatus(ledger.NewError(ledger.KindStorageUnavailable, "op", "down", nil)); got != "storage_unavailable" {
		t.Fatalf("kind: got %s", got)
	}
}
