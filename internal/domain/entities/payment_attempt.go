package entities

import (
	"time"

	"github.com/google/uuid"

	domainerrors "crypto-invoice.backend/internal/domain/errors"
)

// PaymentPhase is the payer-side state of a single payment attempt.
type PaymentPhase string

const (
	PaymentPhaseAwaiting  PaymentPhase = "awaiting_payment"
	PaymentPhasePending   PaymentPhase = "payment_pending"
	PaymentPhaseSucceeded PaymentPhase = "payment_succeeded"
	PaymentPhaseFailed    PaymentPhase = "payment_failed"
)

var paymentTransitions = map[PaymentPhase][]PaymentPhase{
	PaymentPhaseAwaiting: {PaymentPhasePending},
	PaymentPhasePending:  {PaymentPhaseSucceeded, PaymentPhaseFailed},
	PaymentPhaseFailed:   {PaymentPhasePending},
}

// PaymentAttempt tracks one submission of the transfer call batch.
// A new attempt resets the settlement latch for the invoice.
type PaymentAttempt struct {
	ID            uuid.UUID    `json:"id"`
	InvoiceID     uuid.UUID    `json:"invoiceId"`
	PayerAddress  string       `json:"payerAddress"`
	FormEmail     *string      `json:"formEmail,omitempty"`
	Phase         PaymentPhase `json:"phase"`
	TxHash        string       `json:"txHash,omitempty"`
	FailureReason string       `json:"failureReason,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// Advance moves the attempt to the next phase if the move is legal.
func (a *PaymentAttempt) Advance(next PaymentPhase, now time.Time) error {
	for _, allowed := range paymentTransitions[a.Phase] {
		if allowed == next {
			a.Phase = next
			a.UpdatedAt = now
			return nil
		}
	}
	return domainerrors.ErrInvalidTransition
}

// CreatorPhase is the creator-side state of the invoice form.
type CreatorPhase string

const (
	CreatorPhaseDisconnected CreatorPhase = "disconnected"
	CreatorPhaseConnected    CreatorPhase = "connected"
	CreatorPhaseFormOpen     CreatorPhase = "form_open"
	CreatorPhaseSubmitting   CreatorPhase = "submitting"
	CreatorPhaseCreated      CreatorPhase = "created"
	CreatorPhaseFailed       CreatorPhase = "failed"
)
