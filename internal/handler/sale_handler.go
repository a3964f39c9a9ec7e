package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	sales := router.Group("/api/sales")
	{
		sales.GET("", middleware.RequireAuth(), h.ListSales)
		sales.GET("/debtors", middleware.RequireAuth(), h.ListDebtors)
		sales.GET("/:id", middleware.RequireAuth(), h.GetSale)
		sales.GET("/:id/invoice", middleware.RequireAuth(), h.GetInvoice)
		sales.POST("", middleware.RequireAuth(), h.CreateSale)
	}
}

// ListSales returns paginated sales with optional customer filter
// @Summary      List sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page         query  int     false  "Page number (default: 1)"
// @Param        limit        query  int     false  "Items per page (default: 20)"
// @Param        customer_id  query  string  false  "Filter by customer"
// @Success      200  {object}  response.Response
// @Router       /api/sales [get]
func (h *SaleHandler) ListSales(c *gin.Context) {
	p := pagination.Parse(c)
	customerID := c.Query("customer_id")

	sales, total, err := h.saleService.List(c.Request.Context(), customerID, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, sales, p, total))
}

// ListDebtors returns sales that still carry an open balance
// @Summary      List debtor sales
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        page   query  int  false  "Page number (default: 1)"
// @Param        limit  query  int  false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/sales/debtors [get]
func (h *SaleHandler) ListDebtors(c *gin.Context) {
	p := pagination.Parse(c)

	sales, total, err := h.saleService.ListDebtors(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, sales, p, total))
}

// GetSale returns a single sale with its lines and payment entries
// @Summary      Get sale
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Sale ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetSale(c *gin.Context) {
	sale, err := h.saleService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// GetInvoice returns the printable invoice data for a sale
// @Summary      Get sale invoice
// @Tags         sales
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Sale ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sales/{id}/invoice [get]
func (h *SaleHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.saleService.Invoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CreateSale sells stock to a customer: reserves the goods, records the sale
// and posts any unpaid remainder as customer debt in one transaction
// @Summary      Create sale
// @Tags         sales
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateSaleRequest  true  "Sale payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales [post]
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req service.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sale))
}
