package ledger

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/platform/dbctx"
	"github.com/zpgpf/gpf-ledger/internal/platform/logger"
)

type EmployeeRepo interface {
	Create(dbc dbctx.Context, employee *types.Employee) (*types.Employee, error)
	List(dbc dbctx.Context) ([]*types.Employee, error)
	GetByIDs(dbc dbctx.Context, employeeIDs []int64) ([]*types.Employee, error)
	Exists(dbc dbctx.Context, employeeID int64) (bool, error)
	DeleteByIDs(dbc dbctx.Context, employeeIDs []int64) (int64, error)
}

type employeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	repoLog := baseLog.With("repo", "EmployeeRepo")
	return &employeeRepo{db: db, log: repoLog}
}

func (er *employeeRepo) Create(dbc dbctx.Context, employee *types.Employee) (*types.Employee, error) {
	transaction := dbc.DB(er.db)

	employee.ID = 0
	if err := transaction.Omit(clause.Associations).Create(employee).Error; err != nil {
		return nil, err
	}
	return employee, nil
}

// List returns every employee in insertion order.
func (er *employeeRepo) List(dbc dbctx.Context) ([]*types.Employee, error) {
	transaction := dbc.DB(er.db)

	results := []*types.Employee{}
	if err := transaction.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *employeeRepo) GetByIDs(dbc dbctx.Context, employeeIDs []int64) ([]*types.Employee, error) {
	transaction := dbc.DB(er.db)

	results := []*types.Employee{}
	if len(employeeIDs) == 0 {
		return results, nil
	}
	if err := transaction.
		Where("id IN ?", employeeIDs).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *employeeRepo) Exists(dbc dbctx.Context, employeeID int64) (bool, error) {
	transaction := dbc.DB(er.db)

	var n int64
	if err := transaction.
		Model(&types.Employee{}).
		Where("id = ?", employeeID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByIDs removes the employees and reports how many rows matched.
// Transactions are removed by the store before this runs.
func (er *employeeRepo) DeleteByIDs(dbc dbctx.Context, employeeIDs []int64) (int64, error) {
	transaction := dbc.DB(er.db)

	if len(employeeIDs) == 0 {
		return 0, nil
	}
	res := transaction.Where("id IN ?", employeeIDs).Delete(&types.Employee{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
