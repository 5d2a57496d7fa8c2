package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/usecases"
)

type NotificationService interface {
	Send(ctx context.Context, req *entities.EmailNotificationRequest) (string, error)
}

// NotificationHandler exposes the e-mail notifier over HTTP
type NotificationHandler struct {
	usecase NotificationService
}

func NewNotificationHandler(usecase NotificationService) *NotificationHandler {
	return &NotificationHandler{usecase: usecase}
}

// Handle dispatches every method on /functions/v1/send-email-notification
func (h *NotificationHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Email notification endpoint is running",
			"methods": []string{http.MethodGet, http.MethodPost},
			"note":    "POST requests are used to send email notifications",
		})
		return
	case http.MethodPost:
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Only GET and POST methods allowed"})
		return
	}

	var req entities.EmailNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	id, err := h.usecase.Send(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  usecases.MsgEmailSent,
		"email_id": id,
	})
}

func (h *NotificationHandler) renderError(c *gin.Context, err error) {
	if de, ok := usecases.IsDeliveryError(err); ok {
		c.JSON(de.Status, gin.H{"error": usecases.MsgEmailSendFailed, "details": de.Details})
		return
	}

	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}

	details := err.Error()
	if appErr != nil && appErr.Err != nil {
		details = appErr.Err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   usecases.MsgEmailServerFailure,
		"details": details,
	})
}
