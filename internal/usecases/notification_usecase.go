package usecases

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	"crypto-invoice.backend/pkg/logger"
	"crypto-invoice.backend/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	MsgMissingFields      = "Missing required fields"
	MsgInvalidEmailType   = "Invalid email type or missing payer email"
	MsgInvalidEmail       = "Invalid email address"
	MsgEmailSendFailed    = "Failed to send email"
	MsgEmailSent          = "Email sent successfully"
	MsgEmailServerFailure = "Server error sending email notification"
)

// MailSender delivers one rendered e-mail and returns the provider message id.
type MailSender interface {
	Send(ctx context.Context, email entities.Email) (string, error)
}

// providerFailure is implemented by mail client errors carrying the provider answer.
type providerFailure interface {
	error
	HTTPStatus() int
	ResponseBody() json.RawMessage
}

// DeliveryError is a non-2xx answer from the mail provider, passed through to callers.
type DeliveryError struct {
	Status  int
	Details json.RawMessage
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: provider status %d", MsgEmailSendFailed, e.Status)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier is the in-process entry point the invoice workflow uses.
type Notifier interface {
	Send(ctx context.Context, req *entities.EmailNotificationRequest) (string, error)
}

// NotificationUsecase renders and sends transactional e-mail
type NotificationUsecase struct {
	sender   MailSender
	from     string
	validate *validator.Validate
	metrics  *metrics.Registry
	now      func() time.Time
}

func NewNotificationUsecase(sender MailSender, from string, m *metrics.Registry) *NotificationUsecase {
	return &NotificationUsecase{
		sender:   sender,
		from:     from,
		validate: validator.New(),
		metrics:  m,
		now:      time.Now,
	}
}

type emailView struct {
	ShortID              string
	Amount               string
	Token                string
	Description          string
	CreatorWalletAddress string
	RecipientAddress     string
	PaymentHash          string
	Date                 string
}

// Send validates req, renders the matching template and performs one provider
// call. Validation failures never reach the provider.
func (uc *NotificationUsecase) Send(ctx context.Context, req *entities.EmailNotificationRequest) (string, error) {
	if req == nil || req.Type == "" || req.Invoice == nil || strings.TrimSpace(req.CreatorEmail) == "" {
		return "", domainerrors.BadRequest(MsgMissingFields)
	}

	email, err := uc.compose(req)
	if err != nil {
		return "", err
	}

	id, err := uc.sender.Send(ctx, email)
	if err != nil {
		uc.metrics.IncNotification(string(req.Type), string(entities.NotificationFailed))
		var pf providerFailure
		if errors.As(err, &pf) {
			logger.Warn(ctx, "Mail provider rejected email",
				zap.String("type", string(req.Type)),
				zap.Int("status", pf.HTTPStatus()),
			)
			return "", &DeliveryError{Status: pf.HTTPStatus(), Details: pf.ResponseBody(), Err: err}
		}
		logger.Error(ctx, "Failed to send email", zap.String("type", string(req.Type)), zap.Error(err))
		return "", domainerrors.Failure(MsgEmailServerFailure, err)
	}

	uc.metrics.IncNotification(string(req.Type), string(entities.NotificationSent))
	logger.Info(ctx, "Email sent", zap.String("type", string(req.Type)), zap.String("email_id", id))
	return id, nil
}

func (uc *NotificationUsecase) compose(req *entities.EmailNotificationRequest) (entities.Email, error) {
	inv := req.Invoice
	view := emailView{
		ShortID:              shortID(inv.ID),
		Amount:               inv.Amount.String(),
		Token:                inv.TokenSymbol,
		Description:          inv.Description,
		CreatorWalletAddress: inv.CreatorWalletAddress,
		RecipientAddress:     inv.RecipientAddress,
		PaymentHash:          inv.PaymentHash,
		Date:                 uc.now().Format("Jan 2, 2006"),
	}
	if view.Token == "" {
		view.Token = "USDC"
	}

	var (
		to      string
		subject string
		name    string
	)
	switch {
	case req.Type == entities.NotificationPaymentConfirmation:
		to = req.CreatorEmail
		subject = "Payment Received - Invoice " + view.ShortID
		name = "payment_confirmation.html"
	case req.Type == entities.NotificationPaymentReceipt && req.PayerEmail != nil && strings.TrimSpace(*req.PayerEmail) != "":
		to = *req.PayerEmail
		subject = fmt.Sprintf("Payment Confirmation - %s %s", view.Amount, view.Token)
		name = "payment_receipt.html"
	default:
		return entities.Email{}, domainerrors.BadRequest(MsgInvalidEmailType)
	}

	to = strings.TrimSpace(to)
	if err := uc.validate.Var(to, "required,email"); err != nil {
		return entities.Email{}, domainerrors.BadRequest(MsgInvalidEmail)
	}

	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, name, view); err != nil {
		return entities.Email{}, domainerrors.Failure(MsgEmailServerFailure, err)
	}

	return entities.Email{
		From:    uc.from,
		To:      []string{to},
		Subject: subject,
		HTML:    body.String(),
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// IsDeliveryError reports the provider status when err is a DeliveryError.
func IsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
