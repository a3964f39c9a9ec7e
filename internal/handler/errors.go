package handler

import (
	"errors"
	"net/http"

	"backoffice/internal/money"
	"backoffice/internal/service"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// writeError maps service errors onto HTTP statuses and writes the standard
// error envelope.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrNoOpenDebt),
		errors.Is(err, money.ErrInvalidRate):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response.Error(status, err.Error()))
}
