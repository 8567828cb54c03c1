package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/domain/ledger"
)

func SeedEmployee(tb testing.TB, ctx context.Context, tx *gorm.DB, accountNo, name string) *ledger.Employee {
	tb.Helper()
	e := &ledger.Employee{
		GPFAccountNo:   accountNo,
		Name:           name,
		Designation:    PtrString("Teacher"),
		OpeningBalance: 1000,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed employee: %v", err)
	}
	return e
}

func SeedTransaction(tb testing.TB, ctx context.Context, tx *gorm.DB, employeeID int64, month string, subscription int64) *ledger.Transaction {
	tb.Helper()
	t := &ledger.Transaction{
		EmployeeID:   employeeID,
		Month:        month,
		Subscription: subscription,
	}
	if err := tx.WithContext(ctx).Omit("Employee").Create(t).Error; err != nil {
		tb.Fatalf("seed transaction: %v", err)
	}
	return t
}

// CountTransactions counts every transaction row, orphans included.
func CountTransactions(tb testing.TB, tx *gorm.DB) int64 {
	tb.Helper()
	var n int64
	if err := tx.Model(&ledger.Transaction{}).Count(&n).Error; err != nil {
		tb.Fatalf("count transactions: %v", err)
	}
	return n
}

func PtrInt64(v int64) *int64 { return &v }

func PtrString(v string) *string { return &v }
