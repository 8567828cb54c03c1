package ledger

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/platform/dbctx"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type TransactionRepo interface {
	Create(dbc dbctx.Context, txns []*types.Transaction) ([]*types.Transaction, error)
	ListByEmployeeID(dbc dbctx.Context, employeeID int64) ([]*types.Transaction, error)
	DeleteByEmployeeIDs(dbc dbctx.Context, employeeIDs []int64) (int64, error)
}

type transactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTransactionRepo(db *gorm.DB, baseLog *logger.Logger) TransactionRepo {
	repoLog := baseLog.With("repo", "TransactionRepo")
	return &transactionRepo{db: db, log: repoLog}
}

var employeeIDColumn = clause.Column{Name: "employeeId"}

// Create inserts the rows one by one so ids follow slice order.
func (tr *transactionRepo) Create(dbc dbctx.Context, txns []*types.Transaction) ([]*types.Transaction, error) {
	transaction := dbc.DB(tr.db)

	if len(txns) == 0 {
		return []*types.Transaction{}, nil
	}
	for _, t := range txns {
		t.ID = 0
		if err := transaction.Omit(clause.Associations).Create(t).Error; err != nil {
			return nil, err
		}
	}
	return txns, nil
}

func (tr *transactionRepo) ListByEmployeeID(dbc dbctx.Context, employeeID int64) ([]*types.Transaction, error) {
	transaction := dbc.DB(tr.db)

	results := []*types.Transaction{}
	if err := transaction.
		Where(clause.Eq{Column: employeeIDColumn, Value: employeeID}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *transactionRepo) DeleteByEmployeeIDs(dbc dbctx.Context, employeeIDs []int64) (int64, error) {
	transaction := dbc.DB(tr.db)

	if len(employeeIDs) == 0 {
		return 0, nil
	}
	values := make([]interface{}, 0, len(employeeIDs))
	for _, id := range employeeIDs {
		values = append(values, id)
	}
	res := transaction.
		Where(clause.IN{Column: employeeIDColumn, Values: values}).
		Delete(&types.Transaction{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
