package domain

import "github.com/zpgpf/gpf-ledger/internal/domain/ledger"

type Employee = ledger.Employee
type NewEmployee = ledger.NewEmployee
type Transaction = ledger.Transaction
type TransactionInput = ledger.TransactionInput

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&ledger.Employee{},
		&ledger.Transaction{},
	}
}
