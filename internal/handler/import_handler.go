package handler

import (
	"net/http"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importService service.ImportService
}

func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	imports := router.Group("/api/imports")
	{
		imports.GET("", middleware.RequireAuth(), h.ListImports)
		imports.GET("/next-batch-number", middleware.RequireAuth(), h.NextBatchNumber)
		imports.GET("/:id", middleware.RequireAuth(), h.GetImport)
		imports.POST("", middleware.RequireAuth(), h.CreateImport)
		imports.POST("/:id/payments", middleware.RequireAuth(), h.PayImport)
	}
}

// ListImports returns paginated import batches with optional filters
// @Summary      List import batches
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Param        page         query  int     false  "Page number (default: 1)"
// @Param        limit        query  int     false  "Items per page (default: 20)"
// @Param        supplier_id  query  string  false  "Filter by supplier"
// @Param        status       query  string  false  "Filter by status: PAID, PARTIAL, UNPAID"
// @Success      200  {object}  response.Response
// @Router       /api/imports [get]
func (h *ImportHandler) ListImports(c *gin.Context) {
	p := pagination.Parse(c)
	supplierID := c.Query("supplier_id")
	status := c.Query("status")

	batches, total, err := h.importService.List(c.Request.Context(), supplierID, status, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, batches, p, total))
}

// NextBatchNumber returns the batch number the next import will receive
// @Summary      Next batch number
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/imports/next-batch-number [get]
func (h *ImportHandler) NextBatchNumber(c *gin.Context) {
	n, err := h.importService.NextBatchNumber(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"batch_number": n}))
}

// GetImport returns an import batch with its lines
// @Summary      Get import batch
// @Tags         imports
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Import batch ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/imports/{id} [get]
func (h *ImportHandler) GetImport(c *gin.Context) {
	batch, err := h.importService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}

// CreateImport receives a supplier delivery: creates the batch, puts the goods
// in stock and records the supplier debt in one transaction
// @Summary      Create import batch
// @Tags         imports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateImportRequest  true  "Import payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/imports [post]
func (h *ImportHandler) CreateImport(c *gin.Context) {
	var req service.CreateImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.importService.CreateImportBatch(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// PayImport records a payment against a specific import batch
// @Summary      Pay import batch
// @Tags         imports
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true  "Import batch ID"
// @Param        payload  body  service.PayImportRequest  true  "Payment payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/imports/{id}/payments [post]
func (h *ImportHandler) PayImport(c *gin.Context) {
	var req service.PayImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	batch, err := h.importService.PayBatch(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, batch))
}
