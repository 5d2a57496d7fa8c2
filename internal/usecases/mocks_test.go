package usecases_test

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"crypto-invoice.backend/internal/domain/entities"
	"crypto-invoice.backend/internal/infrastructure/blockchain"
)

// Mock InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *entities.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListByCreator(ctx context.Context, creatorAddress string) ([]*entities.Invoice, error) {
	args := m.Called(ctx, creatorAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, recipientAddress, paymentHash string) (*entities.Invoice, error) {
	args := m.Called(ctx, id, recipientAddress, paymentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkPaidManually(ctx context.Context, id uuid.UUID) (*entities.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetExpiredPending(ctx context.Context, now time.Time, limit int) ([]*entities.Invoice, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExpireInvoices(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

// Mock UserProfileRepository
type MockUserProfileRepository struct {
	mock.Mock
}

func (m *MockUserProfileRepository) GetByWalletAddress(ctx context.Context, walletAddress string) (*entities.UserProfile, error) {
	args := m.Called(ctx, walletAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserProfile), args.Error(1)
}

func (m *MockUserProfileRepository) Upsert(ctx context.Context, walletAddress, email string) (*entities.UserProfile, error) {
	args := m.Called(ctx, walletAddress, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserProfile), args.Error(1)
}

// Mock Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, req *entities.EmailNotificationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// Mock MailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, email entities.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// Mock ReceiptVerifier
type MockReceiptVerifier struct {
	mock.Mock
}

func (m *MockReceiptVerifier) VerifyTransfer(ctx context.Context, chainID int64, txHash string, want blockchain.Transfer) (bool, error) {
	args := m.Called(ctx, chainID, txHash, want)
	return args.Bool(0), args.Error(1)
}

// Mock BalanceReader
type MockBalanceReader struct {
	mock.Mock
}

func (m *MockBalanceReader) TokenBalance(ctx context.Context, chainID int64, tokenAddress, owner string) (*big.Int, error) {
	args := m.Called(ctx, chainID, tokenAddress, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}
