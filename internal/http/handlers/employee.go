package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/zpgpf/gpf-ledger/internal/domain"
	"github.com/zpgpf/gpf-ledger/internal/http/response"
	"github.com/zpgpf/gpf-ledger/internal/services"
)

type EmployeeHandler struct {
	ledger services.LedgerService
}

func NewEmployeeHandler(ledger services.LedgerService) *EmployeeHandler {
	return &EmployeeHandler{ledger: ledger}
}

type createdBody struct {
	ID int64 `json:"id"`
}

type replaceTransactionsBody struct {
	Transactions *[]types.TransactionInput `json:"transactions"`
}

// GET /api/employees
func (h *EmployeeHandler) ListEmployees(c *gin.Context) {
	employees, err := h.ledger.ListEmployees(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, employees)
}

// GET /api/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}
	emp, err := h.ledger.GetEmployee(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, emp)
}

// POST /api/employees
func (h *EmployeeHandler) AddEmployee(c *gin.Context) {
	var in types.NewEmployee
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondValidation(c, "invalid request body: "+err.Error())
		return
	}
	emp, err := h.ledger.AddEmployee(c.Request.Context(), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, createdBody{ID: emp.ID})
}

// DELETE /api/employees/:id
func (h *EmployeeHandler) DeleteEmployee(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}
	if err := h.ledger.DeleteEmployee(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondMessage(c, "Employee deleted successfully")
}

// POST /api/employees/:id/transactions
func (h *EmployeeHandler) ReplaceTransactions(c *gin.Context) {
	id, ok := employeeID(c)
	if !ok {
		return
	}
	var body replaceTransactionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondValidation(c, "invalid request body: "+err.Error())
		return
	}
	if body.Transactions == nil {
		response.RespondValidation(c, "transactions array is required")
		return
	}
	if err := h.ledger.ReplaceTransactions(c.Request.Context(), id, *body.Transactions); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondMessage(c, "Transactions updated successfully")
}

func employeeID(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.RespondValidation(c, "invalid employee id: "+raw)
		return 0, false
	}
	return id, true
}
