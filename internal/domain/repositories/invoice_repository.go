package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crypto-invoice.backend/internal/domain/entities"
)

// InvoiceRepository defines invoice data operations.
// Lookups return errors.ErrNotFound when no row matches; the conditional
// updates return errors.ErrInvoiceNotPending when the invoice already left pending.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entities.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Invoice, error)
	ListByCreator(ctx context.Context, creatorAddress string) ([]*entities.Invoice, error)
	MarkPaid(ctx context.Context, id uuid.UUID, recipientAddress, paymentHash string) (*entities.Invoice, error)
	MarkPaidManually(ctx context.Context, id uuid.UUID) (*entities.Invoice, error)
	GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entities.Invoice, error)
	ExpireInvoices(ctx context.Context, ids []uuid.UUID) (int64, error)
}
