package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/interfaces/http/response"
	"crypto-invoice.backend/internal/usecases"
)

type InvoiceService interface {
	Connect(ctx context.Context, address string) (*usecases.Connection, error)
	CreateInvoice(ctx context.Context, input usecases.CreateInvoiceInput) (*usecases.CreateInvoiceOutput, error)
	GetInvoice(ctx context.Context, id string) (*entities.Invoice, bool, error)
	ListInvoices(ctx context.Context, creatorAddress string) ([]*entities.Invoice, error)
	InvoiceSummary(ctx context.Context, id string) (*usecases.InvoiceSummary, error)
	InitiatePayment(ctx context.Context, id string, input usecases.InitiatePaymentInput) (*usecases.PaymentIntent, error)
	ReportPaymentFailure(ctx context.Context, invoiceID, attemptID, reason string) (*entities.PaymentAttempt, error)
	SettlePayment(ctx context.Context, invoiceID string, input usecases.SettlePaymentInput) (*usecases.SettlementResult, error)
	MarkPaidManually(ctx context.Context, id string, input usecases.MarkPaidInput) (*usecases.ManualPaymentResult, error)
}

var encodeQR = qrcode.Encode

type InvoiceHandler struct {
	invoiceUsecase InvoiceService
}

func NewInvoiceHandler(invoiceUsecase InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceUsecase: invoiceUsecase}
}

type ConnectRequest struct {
	Address string `json:"address" binding:"required"`
}

// Connect reports the profile state of a freshly connected wallet
// POST /api/v1/connect
func (h *InvoiceHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	conn, err := h.invoiceUsecase.Connect(c.Request.Context(), req.Address)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, conn)
}

// CreateInvoice creates a pending invoice
// POST /api/v1/invoices
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var input usecases.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	out, err := h.invoiceUsecase.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, out)
}

// ListInvoices lists a creator's invoices, newest first
// GET /api/v1/invoices?creator=0x..
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	creator := strings.TrimSpace(c.Query("creator"))
	if creator == "" {
		response.Error(c, domainerrors.BadRequest("creator query parameter is required"))
		return
	}

	invoices, err := h.invoiceUsecase.ListInvoices(c.Request.Context(), creator)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invoices": invoices})
}

// GetInvoice loads the payer view of an invoice
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	inv, found, err := h.invoiceUsecase.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !found {
		response.Error(c, domainerrors.NotFound(domainerrors.CodeInvoiceNotFound, "Invoice not found"))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invoice": inv})
}

// GetInvoiceSummary returns the print view of an invoice
// GET /api/v1/invoices/:id/summary
func (h *InvoiceHandler) GetInvoiceSummary(c *gin.Context) {
	summary, err := h.invoiceUsecase.InvoiceSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// GetInvoiceQR renders the share link as a PNG QR code
// GET /api/v1/invoices/:id/qr?size=256
func (h *InvoiceHandler) GetInvoiceQR(c *gin.Context) {
	size := 256
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			response.Error(c, domainerrors.BadRequest("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	summary, err := h.invoiceUsecase.InvoiceSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	png, err := encodeQR(summary.ShareURL, qrcode.Medium, size)
	if err != nil {
		response.Error(c, domainerrors.InternalError(err))
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// InitiatePayment builds the wallet call batch for a payer
// POST /api/v1/invoices/:id/payments
func (h *InvoiceHandler) InitiatePayment(c *gin.Context) {
	var input usecases.InitiatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	intent, err := h.invoiceUsecase.InitiatePayment(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, intent)
}

type PaymentFailureRequest struct {
	Reason string `json:"reason"`
}

// ReportPaymentFailure records a rejected or reverted wallet call
// POST /api/v1/invoices/:id/payments/:attemptId/failure
func (h *InvoiceHandler) ReportPaymentFailure(c *gin.Context) {
	var req PaymentFailureRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, domainerrors.BadRequest("invalid request body"))
			return
		}
	}

	attempt, err := h.invoiceUsecase.ReportPaymentFailure(c.Request.Context(), c.Param("id"), c.Param("attemptId"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// SettlePayment handles the wallet's completion signal
// POST /api/v1/invoices/:id/settlement
func (h *InvoiceHandler) SettlePayment(c *gin.Context) {
	var input usecases.SettlePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	result, err := h.invoiceUsecase.SettlePayment(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// MarkPaid settles an invoice confirmed outside the wallet flow
// POST /api/v1/invoices/:id/mark-paid
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	var input usecases.MarkPaidInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request body"))
		return
	}

	result, err := h.invoiceUsecase.MarkPaidManually(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
