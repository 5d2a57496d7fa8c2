package entities

// NotificationType selects the e-mail template
type NotificationType string

const (
	NotificationPaymentConfirmation NotificationType = "payment_confirmation"
	NotificationPaymentReceipt      NotificationType = "payment_receipt"
)

// EmailInvoice is the fixed set of invoice fields rendered into e-mails.
type EmailInvoice struct {
	ID                   string `json:"id"`
	Amount               Amount `json:"amount"`
	Description          string `json:"description"`
	CreatorWalletAddress string `json:"creator_wallet_address"`
	RecipientAddress     string `json:"recipient_address"`
	PaymentHash          string `json:"payment_hash"`
	CreatedAt            string `json:"created_at"`
	TokenSymbol          string `json:"token_symbol,omitempty"`
}

// EmailNotificationRequest is the body accepted by the notifier.
type EmailNotificationRequest struct {
	Type         NotificationType `json:"type"`
	Invoice      *EmailInvoice    `json:"invoice"`
	CreatorEmail string           `json:"creator_email"`
	PayerEmail   *string          `json:"payer_email,omitempty"`
}

// Email is one rendered outbound message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// NotificationOutcome summarizes a best-effort send.
type NotificationOutcome string

const (
	NotificationSent    NotificationOutcome = "sent"
	NotificationSkipped NotificationOutcome = "skipped"
	NotificationFailed  NotificationOutcome = "failed"
)
