package services

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/platform/ctxutil"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

const defaultFetchConcurrency = 8

type transactionLister interface {
	ListTransactions(ctx context.Context, employeeID int64) ([]*types.Transaction, error)
}

// aggregateTransactions attaches each employee's ordered transactions in
// place. Fetches run concurrently but every result lands in its employee's
// own slot, so output order is the input order. A failed fetch leaves that
// employee with an empty list; it never aborts the others. It returns the
// number of failed fetches.
func aggregateTransactions(ctx context.Context, lister transactionLister, employees []*types.Employee, concurrency int, log *logger.Logger) int {
	if len(employees) == 0 {
		return 0
	}
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}

	slots := make([][]*types.Transaction, len(employees))
	var failures int64

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, emp := range employees {
		if emp == nil {
			continue
		}
		g.Go(func() error {
			txns, err := lister.ListTransactions(ctx, emp.ID)
			if err != nil {
				atomic.AddInt64(&failures, 1)
				if log != nil {
					log.Warn("transaction fetch failed; returning employee with empty list",
						append(ctxutil.LogFields(ctx), "employee_id", emp.ID, "error", err)...)
				}
				return nil
			}
			slots[i] = txns
			return nil
		})
	}
	_ = g.Wait()

	for i, emp := range employees {
		if emp == nil {
			continue
		}
		if slots[i] == nil {
			slots[i] = []*types.Transaction{}
		}
		emp.Transactions = slots[i]
	}
	return int(failures)
}
