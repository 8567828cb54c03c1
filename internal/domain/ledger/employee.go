package ledger

import "strings"

// Employee is a GPF subscriber. Column names follow the legacy ledger schema
// so an existing database file can be opened as-is.
type Employee struct {
	ID             int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	GPFAccountNo   string  `gorm:"column:gpfAccountNo;type:text;not null;uniqueIndex:idx_employees_gpf_account_no" json:"gpfAccountNo"`
	Name           string  `gorm:"column:name;type:text;not null" json:"name"`
	Designation    *string `gorm:"column:designation;type:text" json:"designation"`
	PlaceOfWork    *string `gorm:"column:placeOfWork;type:text" json:"placeOfWork"`
	Mandal         *string `gorm:"column:mandal;type:text" json:"mandal"`
	FinancialYear  *string `gorm:"column:financialYear;type:text" json:"financialYear"`
	OpeningBalance int64   `gorm:"column:openingBalance;default:0" json:"openingBalance"`

	// Filled by the aggregator; never persisted through this field.
	Transactions []*Transaction `gorm:"-" json:"transactions"`
}

func (Employee) TableName() string { return "employees" }

// NewEmployee is the add-employee payload.
type NewEmployee struct {
	GPFAccountNo   string  `json:"gpfAccountNo"`
	Name           string  `json:"name"`
	Designation    *string `json:"designation"`
	PlaceOfWork    *string `json:"placeOfWork"`
	Mandal         *string `json:"mandal"`
	FinancialYear  *string `json:"financialYear"`
	OpeningBalance *int64  `json:"openingBalance"`
}

// Validate checks the fields the schema declares NOT NULL.
func (in NewEmployee) Validate() error {
	var missing []string
	if strings.TrimSpace(in.GPFAccountNo) == "" {
		missing = append(missing, "gpfAccountNo")
	}
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return NewError(KindValidation, "employee.validate", "missing required field(s): "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// Employee converts the payload into a row, applying the openingBalance default.
func (in NewEmployee) Employee() *Employee {
	emp := &Employee{
		GPFAccountNo:  strings.TrimSpace(in.GPFAccountNo),
		Name:          strings.TrimSpace(in.Name),
		Designation:   in.Designation,
		PlaceOfWork:   in.PlaceOfWork,
		Mandal:        in.Mandal,
		FinancialYear: in.FinancialYear,
	}
	if in.OpeningBalance != nil {
		emp.OpeningBalance = *in.OpeningBalance
	}
	return emp
}
