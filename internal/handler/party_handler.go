package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/model"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PartyHandler struct {
	partyService service.PartyService
	debtService  service.DebtService
}

func NewPartyHandler(partyService service.PartyService, debtService service.DebtService) *PartyHandler {
	return &PartyHandler{partyService: partyService, debtService: debtService}
}

func (h *PartyHandler) RegisterRoutes(router *gin.RouterGroup) {
	parties := router.Group("/api/parties")
	{
		parties.GET("", middleware.RequireAuth(), h.ListParties)
		parties.GET("/:id", middleware.RequireAuth(), h.GetParty)
		parties.POST("", middleware.RequireAuth(), h.CreateParty)
		parties.PUT("/:id", middleware.RequireAuth(), h.UpdateParty)
		parties.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteParty)
		parties.GET("/:id/payments", middleware.RequireAuth(), h.ListPayments)
		parties.POST("/:id/payments", middleware.RequireAuth(), h.PayDebt)
		parties.POST("/:id/reconcile", middleware.RequireRole(model.RoleAdmin), h.Reconcile)
	}
}

// PayDebtRequest is the payload for paying down a party's open debt
type PayDebtRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Note   string  `json:"note"`
}

// ListParties returns paginated parties with optional type/search filter
// @Summary      List parties
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default: 1)"
// @Param        limit   query     int     false  "Items per page (default: 20)"
// @Param        type    query     string  false  "Filter by type: SUPPLIER, CUSTOMER, BOTH"
// @Param        search  query     string  false  "Search by name or phone"
// @Success      200     {object}  response.Response
// @Router       /api/parties [get]
func (h *PartyHandler) ListParties(c *gin.Context) {
	p := pagination.Parse(c)
	partyType := c.Query("type")
	search := c.Query("search")

	parties, total, err := h.partyService.List(c.Request.Context(), partyType, search, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, parties, p, total))
}

// GetParty returns a single party with its debt totals
// @Summary      Get party
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Party ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/parties/{id} [get]
func (h *PartyHandler) GetParty(c *gin.Context) {
	party, err := h.partyService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, party))
}

// CreateParty creates a new supplier or customer
// @Summary      Create party
// @Tags         parties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreatePartyRequest  true  "Party payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/parties [post]
func (h *PartyHandler) CreateParty(c *gin.Context) {
	var req service.CreatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	party, err := h.partyService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, party))
}

// UpdateParty updates an existing party
// @Summary      Update party
// @Tags         parties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Party ID"
// @Param        payload  body  service.UpdatePartyRequest   true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/parties/{id} [put]
func (h *PartyHandler) UpdateParty(c *gin.Context) {
	var req service.UpdatePartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	party, err := h.partyService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, party))
}

// DeleteParty deletes a party (soft delete). Parties with open debt are refused.
// @Summary      Delete party
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Party ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/parties/{id} [delete]
func (h *PartyHandler) DeleteParty(c *gin.Context) {
	if err := h.partyService.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Party deleted successfully"}))
}

// ListPayments returns the payment history recorded against a party
// @Summary      List party payments
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Party ID"
// @Success      200  {object}  response.Response
// @Router       /api/parties/{id}/payments [get]
func (h *PartyHandler) ListPayments(c *gin.Context) {
	payments, err := h.partyService.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// PayDebt applies a payment against the party's open documents, oldest first
// @Summary      Pay party debt
// @Tags         parties
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Party ID"
// @Param        payload  body  PayDebtRequest  true  "Payment payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/parties/{id}/payments [post]
func (h *PartyHandler) PayDebt(c *gin.Context) {
	var req PayDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.debtService.ApplyPayment(c.Request.Context(), c.GetString("userID"), c.Param("id"), decimal.NewFromFloat(req.Amount), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Reconcile recomputes the party's debt totals from its documents
// @Summary      Reconcile party totals
// @Tags         parties
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Party ID"
// @Success      200  {object}  response.Response
// @Router       /api/parties/{id}/reconcile [post]
func (h *PartyHandler) Reconcile(c *gin.Context) {
	party, err := h.debtService.Reconcile(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, party))
}
