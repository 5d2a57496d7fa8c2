package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/internal/infrastructure/mailer"
	"crypto-invoice.backend/internal/usecases"
)

const testFrom = "Crypto Invoice <noreply@test.io>"

func emailInvoice() *entities.EmailInvoice {
	return &entities.EmailInvoice{
		ID:                   "0190f5a2-aaaa-7bbb-8ccc-1234567890ab",
		Amount:               entities.Amount("12.5"),
		Description:          "Logo design",
		CreatorWalletAddress: creatorAddr,
		RecipientAddress:     payerAddr,
		PaymentHash:          txHash,
		CreatedAt:            "2024-01-02T03:04:05Z",
	}
}

func TestNotificationUsecase_SendConfirmation(t *testing.T) {
	sender := new(MockMailSender)
	uc := usecases.NewNotificationUsecase(sender, testFrom, nil)

	sender.On("Send", mock.Anything, mock.MatchedBy(func(e entities.Email) bool {
		return e.From == testFrom &&
			len(e.To) == 1 && e.To[0] == "creator@test.io" &&
			e.Subject == "Payment Received - Invoice 0190f5a2" &&
			strings.Contains(e.HTML, "Logo design") &&
			strings.Contains(e.HTML, txHash)
	})).Return("email-1", nil).Once()

	id, err := uc.Send(context.Background(), &entities.EmailNotificationRequest{
		Type:         entities.NotificationPaymentConfirmation,
		Invoice:      emailInvoice(),
		CreatorEmail: "creator@test.io",
	})
	require.NoError(t, err)
	assert.Equal(t, "email-1", id)
	sender.AssertExpectations(t)
}

func TestNotificationUsecase_SendReceipt(t *testing.T) {
	sender := new(MockMailSender)
	uc := usecases.NewNotificationUsecase(sender, testFrom, nil)
	payer := "payer@test.io"

	sender.On("Send", mock.Anything, mock.MatchedBy(func(e entities.Email) bool {
		return e.To[0] == payer && e.Subject == "Payment Confirmation - 12.5 USDC"
	})).Return("email-2", nil).Once()

	id, err := uc.Send(context.Background(), &entities.EmailNotificationRequest{
		Type:         entities.NotificationPaymentReceipt,
		Invoice:      emailInvoice(),
		CreatorEmail: "creator@test.io",
		PayerEmail:   &payer,
	})
	require.NoError(t, err)
	assert.Equal(t, "email-2", id)
}

func TestNotificationUsecase_RejectsBeforeProviderCall(t *testing.T) {
	sender := new(MockMailSender)
	uc := usecases.NewNotificationUsecase(sender, testFrom, nil)
	blank := "  "
	bad := "not-an-email"

	cases := []struct {
		name string
		req  *entities.EmailNotificationRequest
		msg  string
	}{
		{"nil", nil, usecases.MsgMissingFields},
		{"missing creator email", &entities.EmailNotificationRequest{
			Type: entities.NotificationPaymentConfirmation, Invoice: emailInvoice(),
		}, usecases.MsgMissingFields},
		{"missing invoice", &entities.EmailNotificationRequest{
			Type: entities.NotificationPaymentConfirmation, CreatorEmail: "a@test.io",
		}, usecases.MsgMissingFields},
		{"receipt without payer", &entities.EmailNotificationRequest{
			Type: entities.NotificationPaymentReceipt, Invoice: emailInvoice(), CreatorEmail: "a@test.io",
		}, usecases.MsgInvalidEmailType},
		{"receipt with blank payer", &entities.EmailNotificationRequest{
			Type: entities.NotificationPaymentReceipt, Invoice: emailInvoice(), CreatorEmail: "a@test.io", PayerEmail: &blank,
		}, usecases.MsgInvalidEmailType},
		{"unknown type", &entities.EmailNotificationRequest{
			Type: "reminder", Invoice: emailInvoice(), CreatorEmail: "a@test.io",
		}, usecases.MsgInvalidEmailType},
		{"malformed recipient", &entities.EmailNotificationRequest{
			Type: entities.NotificationPaymentReceipt, Invoice: emailInvoice(), CreatorEmail: "a@test.io", PayerEmail: &bad,
		}, usecases.MsgInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Send(context.Background(), tc.req)
			ae := appErr(t, err)
			assert.Equal(t, http.StatusBadRequest, ae.Status)
			assert.Equal(t, tc.msg, ae.Message)
		})
	}
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotificationUsecase_ProviderRejection(t *testing.T) {
	sender := new(MockMailSender)
	uc := usecases.NewNotificationUsecase(sender, testFrom, nil)
	body := json.RawMessage(`{"message":"domain not verified"}`)
	sender.On("Send", mock.Anything, mock.Anything).
		Return("", &mailer.ProviderError{StatusCode: http.StatusForbidden, Body: body}).Once()

	_, err := uc.Send(context.Background(), &entities.EmailNotificationRequest{
		Type:         entities.NotificationPaymentConfirmation,
		Invoice:      emailInvoice(),
		CreatorEmail: "creator@test.io",
	})
	de, ok := usecases.IsDeliveryError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, de.Status)
	assert.JSONEq(t, string(body), string(de.Details))
}

func TestNotificationUsecase_TransportError(t *testing.T) {
	sender := new(MockMailSender)
	uc := usecases.NewNotificationUsecase(sender, testFrom, nil)
	sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("dial tcp: timeout")).Once()

	_, err := uc.Send(context.Background(), &entities.EmailNotificationRequest{
		Type:         entities.NotificationPaymentConfirmation,
		Invoice:      emailInvoice(),
		CreatorEmail: "creator@test.io",
	})
	_, isDelivery := usecases.IsDeliveryError(err)
	assert.False(t, isDelivery)
	ae := appErr(t, err)
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
	assert.Equal(t, usecases.MsgEmailServerFailure, ae.Message)
	assert.Equal(t, domainerrors.CodeOperationFailed, ae.Code)
}
