package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	domainerrors "crypto-invoice.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Errors that are not AppErrors become 500s.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError(err)
	}
	_ = c.Error(err)

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

// FieldErrors renders the `{errors:{...}}` envelope used by the wallet function endpoints.
func FieldErrors(c *gin.Context, status int, errs interface{}) {
	c.JSON(status, gin.H{"errors": errs})
}
