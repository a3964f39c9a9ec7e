package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type StockHandler struct {
	stockService service.StockService
}

func NewStockHandler(stockService service.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stock := router.Group("/api/stock")
	{
		stock.GET("", middleware.RequireAuth(), h.ListStock)
		stock.GET("/summary", middleware.RequireAuth(), h.StockSummary)
		stock.GET("/:id/movements", middleware.RequireAuth(), h.ListMovements)
	}
}

// ListStock returns paginated stock lines with optional search
// @Summary      List stock lines
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        search  query  string  false  "Search by product name"
// @Success      200  {object}  response.Response
// @Router       /api/stock [get]
func (h *StockHandler) ListStock(c *gin.Context) {
	p := pagination.Parse(c)
	search := c.Query("search")

	lines, total, err := h.stockService.ListLines(c.Request.Context(), search, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, lines, p, total))
}

// StockSummary returns quantities grouped by product and unit across batches
// @Summary      Stock summary by product
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/stock/summary [get]
func (h *StockHandler) StockSummary(c *gin.Context) {
	summary, err := h.stockService.GroupedByProduct(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// ListMovements returns the movement history for a stock line
// @Summary      List stock movements
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id     path   string  true   "Stock line ID"
// @Param        page   query  int     false  "Page number (default: 1)"
// @Param        limit  query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/stock/{id}/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, movements, p, total))
}
