package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"

	domainerrors "crypto-invoice.backend/internal/domain/errors"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusExpired InvoiceStatus = "expired"
)

// invoiceTransitions enumerates the only legal status moves.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusExpired},
}

// ManualPaymentHash is reported in notifications for invoices settled off-band.
const ManualPaymentHash = "N/A (Marked as paid manually)"

// Invoice is a request for payment created by a wallet owner.
type Invoice struct {
	ID                   uuid.UUID     `json:"id"`
	CreatorWalletAddress string        `json:"creator_wallet_address"`
	RecipientAddress     *string       `json:"recipient_address"`
	RecipientEmail       *string       `json:"recipient_email"`
	Amount               Amount        `json:"amount"`
	Description          string        `json:"description"`
	TokenSymbol          string        `json:"token_symbol"`
	ChainID              int64         `json:"chain_id"`
	Status               InvoiceStatus `json:"status"`
	PaymentHash          *string       `json:"payment_hash"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	ExpiresAt            *time.Time    `json:"expires_at,omitempty"`
}

// CanTransition reports whether an invoice may move from one status to another.
func CanTransition(from, to InvoiceStatus) bool {
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTo validates and applies a status change in memory.
func (i *Invoice) TransitionTo(next InvoiceStatus) error {
	if !CanTransition(i.Status, next) {
		return domainerrors.ErrInvalidTransition
	}
	i.Status = next
	return nil
}

// IsPayable reports whether the invoice still accepts payment at the given time.
func (i *Invoice) IsPayable(now time.Time) bool {
	if i.Status != InvoiceStatusPending {
		return false
	}
	return i.ExpiresAt == nil || now.Before(*i.ExpiresAt)
}

// NormalizeAddress lower-cases a wallet address for storage and comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
