package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/infrastructure/models"
)

// InvoiceRepositoryImpl implements InvoiceRepository
type InvoiceRepositoryImpl struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepositoryImpl {
	return &InvoiceRepositoryImpl{db: db}
}

func (r *InvoiceRepositoryImpl) Create(ctx context.Context, inv *entities.Invoice) error {
	now := time.Now()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatorWalletAddress = entities.NormalizeAddress(inv.CreatorWalletAddress)
	inv.CreatedAt = now
	inv.UpdatedAt = now

	m := &models.Invoice{
		ID:                   inv.ID,
		CreatorWalletAddress: inv.CreatorWalletAddress,
		RecipientAddress:     null.StringFromPtr(inv.RecipientAddress),
		RecipientEmail:       null.StringFromPtr(inv.RecipientEmail),
		Amount:               inv.Amount.String(),
		Description:          inv.Description,
		Status:               string(inv.Status),
		PaymentHash:          null.StringFromPtr(inv.PaymentHash),
		ChainID:              inv.ChainID,
		TokenSymbol:          inv.TokenSymbol,
		CreatedAt:            now,
		UpdatedAt:            now,
		ExpiresAt:            null.TimeFromPtr(inv.ExpiresAt),
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *InvoiceRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	var m models.Invoice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

func (r *InvoiceRepositoryImpl) ListByCreator(ctx context.Context, creatorAddress string) ([]*entities.Invoice, error) {
	var ms []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("creator_wallet_address = ?", entities.NormalizeAddress(creatorAddress)).
		Order("created_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	invoices := make([]*entities.Invoice, 0, len(ms))
	for i := range ms {
		invoices = append(invoices, r.toEntity(&ms[i]))
	}
	return invoices, nil
}

// MarkPaid settles a pending invoice in a single conditional update.
func (r *InvoiceRepositoryImpl) MarkPaid(ctx context.Context, id uuid.UUID, recipientAddress, paymentHash string) (*entities.Invoice, error) {
	return r.markPaid(ctx, id, map[string]interface{}{
		"status":            entities.InvoiceStatusPaid,
		"recipient_address": entities.NormalizeAddress(recipientAddress),
		"payment_hash":      paymentHash,
		"updated_at":        time.Now(),
	})
}

// MarkPaidManually settles a pending invoice without on-chain details.
func (r *InvoiceRepositoryImpl) MarkPaidManually(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	return r.markPaid(ctx, id, map[string]interface{}{
		"status":     entities.InvoiceStatusPaid,
		"updated_at": time.Now(),
	})
}

func (r *InvoiceRepositoryImpl) markPaid(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*entities.Invoice, error) {
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, entities.InvoiceStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, domainerrors.ErrInvoiceNotPending
	}
	return r.GetByID(ctx, id)
}

func (r *InvoiceRepositoryImpl) GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entities.Invoice, error) {
	var ms []models.Invoice
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", entities.InvoiceStatusPending, now).
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	invoices := make([]*entities.Invoice, 0, len(ms))
	for i := range ms {
		invoices = append(invoices, r.toEntity(&ms[i]))
	}
	return invoices, nil
}

func (r *InvoiceRepositoryImpl) ExpireInvoices(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("id IN ? AND status = ?", ids, entities.InvoiceStatusPending).
		Updates(map[string]interface{}{
			"status":     entities.InvoiceStatusExpired,
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *InvoiceRepositoryImpl) toEntity(m *models.Invoice) *entities.Invoice {
	// decimal columns come back padded ("50.000000000000000000")
	amount, err := entities.ParseAmount(m.Amount)
	if err != nil {
		amount = entities.Amount(m.Amount)
	}
	return &entities.Invoice{
		ID:                   m.ID,
		CreatorWalletAddress: m.CreatorWalletAddress,
		RecipientAddress:     m.RecipientAddress.Ptr(),
		RecipientEmail:       m.RecipientEmail.Ptr(),
		Amount:               amount,
		Description:          m.Description,
		TokenSymbol:          m.TokenSymbol,
		ChainID:              m.ChainID,
		Status:               entities.InvoiceStatus(m.Status),
		PaymentHash:          m.PaymentHash.Ptr(),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		ExpiresAt:            m.ExpiresAt.Ptr(),
	}
}
