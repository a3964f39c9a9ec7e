package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	{
		expenses.GET("", middleware.RequireAuth(), h.ListExpenses)
		expenses.POST("", middleware.RequireAuth(), h.CreateExpense)
		expenses.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteExpense)
	}
}

// ListExpenses returns paginated expenses with optional category filter
// @Summary      List expenses
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default: 1)"
// @Param        limit     query  int     false  "Items per page (default: 20)"
// @Param        category  query  string  false  "Filter by category: RENT, SALARY, TRANSPORT, OTHER"
// @Success      200  {object}  response.Response
// @Router       /api/expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	p := pagination.Parse(c)
	category := c.Query("category")

	expenses, total, err := h.expenseService.List(c.Request.Context(), category, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, expenses, p, total))
}

// CreateExpense records an operating expense
// @Summary      Create expense
// @Tags         expenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateExpenseRequest  true  "Expense payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expense, err := h.expenseService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// DeleteExpense deletes an expense (soft delete)
// @Summary      Delete expense
// @Tags         expenses
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Expense deleted successfully"}))
}
