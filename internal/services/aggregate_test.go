package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	types "github.com/zpgpf/gpf-ledger/internal/domain"
)

type fakeLister struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int

	delay func(employeeID int64) time.Duration
	fail  map[int64]bool
}

func (f *fakeLister) ListTransactions(ctx context.Context, employeeID int64) ([]*types.Transaction, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay != nil {
		time.Sleep(f.delay(employeeID))
	}
	if f.fail[employeeID] {
		return nil, errors.New("database is locked")
	}
	return []*types.Transaction{{EmployeeID: employeeID, Month: "Apr"}}, nil
}

func employeesWithIDs(ids ...int64) []*types.Employee {
	out := make([]*types.Employee, 0, len(ids))
	for _, id := range ids {
		out = append(out, &types.Employee{ID: id})
	}
	return out
}

func TestAggregatePreservesEmployeeOrder(t *testing.T) {
	// Earlier employees finish last.
	lister := &fakeLister{delay: func(id int64) time.Duration {
		return time.Duration(10-id) * 3 * time.Millisecond
	}}
	emps := employeesWithIDs(1, 2, 3, 4, 5, 6, 7, 8, 9)

	if failures := aggregateTransactions(context.Background(), lister, emps, 9, nil); failures != 0 {
		t.Fatalf("unexpected failures: %d", failures)
	}
	for i, e := range emps {
		if e.ID != int64(i+1) {
			t.Fatalf("employee order changed at %d: %d", i, e.ID)
		}
		if len(e.Transactions) != 1 || e.Transactions[0].EmployeeID != e.ID {
			t.Fatalf("employee %d got someone else's transactions: %+v", e.ID, e.Transactions)
		}
	}
}

func TestAggregateIsolatesFailures(t *testing.T) {
	lister := &fakeLister{fail: map[int64]bool{2: true}}
	emps := employeesWithIDs(1, 2, 3)

	failures := aggregateTransactions(context.Background(), lister, emps, 0, nil)
	if failures != 1 {
		t.Fatalf("failures: want 1 got %d", failures)
	}
	if emps[1].Transactions == nil || len(emps[1].Transactions) != 0 {
		t.Fatalf("failed employee should get an empty, non-nil list: %#v", emps[1].Transactions)
	}
	if len(emps[0].Transactions) != 1 || len(emps[2].Transactions) != 1 {
		t.Fatalf("siblings affected by one failure")
	}
}

func TestAggregateRespectsConcurrencyLimit(t *testing.T) {
	lister := &fakeLister{delay: func(int64) time.Duration { return 5 * time.Millisecond }}
	emps := employeesWithIDs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	aggregateTransactions(context.Background(), lister, emps, 3, nil)
	if lister.maxSeen > 3 {
		t.Fatalf("in-flight fetches exceeded limit: %d", lister.maxSeen)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if n := aggregateTransactions(context.Background(), &fakeLister{}, nil, 4, nil); n != 0 {
		t.Fatalf("empty input: %d", n)
	}
}
