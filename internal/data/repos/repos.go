package repos

import (
	"gorm.io/gorm"

	"github.com/zpgpf/gpf-ledger/internal/data/repos/ledger"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type EmployeeRepo = ledger.EmployeeRepo
type TransactionRepo = ledger.TransactionRepo

// Set groups the ledger repositories so wiring can pass them around as one.
type Set struct {
	Employees    EmployeeRepo
	Transactions TransactionRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Employees:    ledger.NewEmployeeRepo(db, baseLog),
		Transactions: ledger.NewTransactionRepo(db, baseLog),
	}
}
