package ledger

// Transaction is one monthly ledger line. Amounts are whole rupees.
// OB and CB are nullable; the ledger never derives CB from the other columns.
type Transaction struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EmployeeID   int64  `gorm:"column:employeeId;index:idx_transactions_employee_id" json:"employeeId"`
	Month        string `gorm:"column:month;type:text" json:"month"`
	OB           *int64 `gorm:"column:ob" json:"ob"`
	Subscription int64  `gorm:"column:subscription;default:0" json:"subscription"`
	Recovery     int64  `gorm:"column:recovery;default:0" json:"recovery"`
	Loan         int64  `gorm:"column:loan;default:0" json:"loan"`
	CB           *int64 `gorm:"column:cb" json:"cb"`

	Employee *Employee `gorm:"foreignKey:EmployeeID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionInput is one entry of a replace request.
type TransactionInput struct {
	Month        string `json:"month"`
	OB           *int64 `json:"ob"`
	Subscription *int64 `json:"subscription"`
	Recovery     *int64 `json:"recovery"`
	Loan         *int64 `json:"loan"`
	CB           *int64 `json:"cb"`
}

// Transaction tags the input with its owner and applies the zero defaults
// for subscription, recovery and loan.
func (in TransactionInput) Transaction(employeeID int64) *Transaction {
	return &Transaction{
		EmployeeID:   employeeID,
		Month:        in.Month,
		OB:           in.OB,
		Subscription: valueOrZero(in.Subscription),
		Recovery:     valueOrZero(in.Recovery),
		Loan:         valueOrZero(in.Loan),
		CB:           in.CB,
	}
}

// Transactions converts a whole replace payload, preserving order.
func Transactions(employeeID int64, in []TransactionInput) []*Transaction {
	out := make([]*Transaction, 0, len(in))
	for _, t := range in {
		out = append(out, t.Transaction(employeeID))
	}
	return out
}

func valueOrZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
