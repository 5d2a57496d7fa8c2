package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto-invoice.backend/internal/domain/entities"
	"crypto-invoice.backend/internal/interfaces/http/response"
	"crypto-invoice.backend/pkg/logger"
)

type DataValidationService interface {
	Validate(ctx context.Context, req *entities.DataValidationRequest) (*entities.ApprovedCallRequest, *entities.ValidationErrors)
}

// DataValidationHandler serves the wallet data callback
type DataValidationHandler struct {
	usecase DataValidationService
}

func NewDataValidationHandler(usecase DataValidationService) *DataValidationHandler {
	return &DataValidationHandler{usecase: usecase}
}

// Handle dispatches every method on /functions/v1/data-validation
func (h *DataValidationHandler) Handle(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(c.Request.Context(), "Panic validating data callback", zap.Any("panic", r))
			response.FieldErrors(c, http.StatusInternalServerError, gin.H{"server": "Server error validating data"})
		}
	}()

	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	case http.MethodPost:
	default:
		response.FieldErrors(c, http.StatusMethodNotAllowed, gin.H{"method": "Only POST method allowed"})
		return
	}

	var req entities.DataValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FieldErrors(c, http.StatusBadRequest, gin.H{"body": "Invalid JSON body"})
		return
	}

	approved, verrs := h.usecase.Validate(c.Request.Context(), &req)
	if verrs != nil {
		response.FieldErrors(c, http.StatusBadRequest, verrs)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": approved})
}
