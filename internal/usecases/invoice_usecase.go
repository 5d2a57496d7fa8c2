package usecases

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"crypto-invoice.backend/internal/domain/entities"
	domainerrors "crypto-invoice.backend/internal/domain/errors"
	domainRepos "crypto-invoice.backend/internal/domain/repositories"
	"crypto-invoice.backend/internal/infrastructure/blockchain"
	"crypto-invoice.backend/pkg/logger"
	"crypto-invoice.backend/pkg/metrics"
	"crypto-invoice.backend/pkg/utils"
)

// AttemptStore persists payment attempts and guards settlement per attempt.
type AttemptStore interface {
	Save(ctx context.Context, attempt *entities.PaymentAttempt) error
	Get(ctx context.Context, id uuid.UUID) (*entities.PaymentAttempt, error)
	AcquireSettlement(ctx context.Context, attemptID uuid.UUID) (bool, error)
	ReleaseSettlement(ctx context.Context, attemptID uuid.UUID) error
}

// TokenResolver maps an invoice's chain and symbol to a token contract.
type TokenResolver interface {
	Lookup(chainID int64, symbol string) (entities.Token, error)
}

// ReceiptVerifier checks that a reported transaction carried the invoice transfer.
type ReceiptVerifier interface {
	VerifyTransfer(ctx context.Context, chainID int64, txHash string, want blockchain.Transfer) (bool, error)
}

// BalanceReader reads a payer's token balance before a payment is built.
type BalanceReader interface {
	TokenBalance(ctx context.Context, chainID int64, tokenAddress, owner string) (*big.Int, error)
}

// InvoiceSettings are the deployment values the workflow needs.
type InvoiceSettings struct {
	AppOrigin      string
	CallbackURL    string
	DefaultChainID int64
	DefaultToken   string
}

// InvoiceUsecase drives an invoice from creation to settlement
type InvoiceUsecase struct {
	invoiceRepo domainRepos.InvoiceRepository
	profileRepo domainRepos.UserProfileRepository
	attempts    AttemptStore
	tokens      TokenResolver
	notifier    Notifier
	verifier    ReceiptVerifier
	balances    BalanceReader
	metrics     *metrics.Registry
	settings    InvoiceSettings
	validate    *validator.Validate
	now         func() time.Time
}

func NewInvoiceUsecase(
	invoiceRepo domainRepos.InvoiceRepository,
	profileRepo domainRepos.UserProfileRepository,
	attempts AttemptStore,
	tokens TokenResolver,
	notifier Notifier,
	settings InvoiceSettings,
	m *metrics.Registry,
) *InvoiceUsecase {
	if settings.DefaultChainID == 0 {
		settings.DefaultChainID = entities.ChainIDBaseSepolia
	}
	if settings.DefaultToken == "" {
		settings.DefaultToken = "USDC"
	}
	settings.AppOrigin = strings.TrimRight(settings.AppOrigin, "/")
	return &InvoiceUsecase{
		invoiceRepo: invoiceRepo,
		profileRepo: profileRepo,
		attempts:    attempts,
		tokens:      tokens,
		notifier:    notifier,
		metrics:     m,
		settings:    settings,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// SetReceiptVerifier enables on-chain receipt checks before settlement.
func (uc *InvoiceUsecase) SetReceiptVerifier(v ReceiptVerifier) {
	uc.verifier = v
}

// SetBalanceReader enables the insufficient-balance check on InitiatePayment.
func (uc *InvoiceUsecase) SetBalanceReader(b BalanceReader) {
	uc.balances = b
}

// Connection is the creator view right after a wallet connects.
type Connection struct {
	Address      string                   `json:"address"`
	State        entities.ConnectionState `json:"state"`
	Profile      *entities.UserProfile    `json:"profile,omitempty"`
	ProfileError string                   `json:"profileError,omitempty"`
}

// Connect loads the profile of a freshly connected wallet. A failed lookup
// degrades to "no profile" instead of failing the connection.
func (uc *InvoiceUsecase) Connect(ctx context.Context, address string) (*Connection, error) {
	if !blockchain.IsValidAddress(address) {
		return nil, domainerrors.BadRequest("invalid wallet address")
	}
	conn := &Connection{
		Address: entities.NormalizeAddress(address),
		State:   entities.ConnectionStateNoProfile,
	}

	profile, err := uc.profileRepo.GetByWalletAddress(ctx, conn.Address)
	switch {
	case err == nil:
		conn.State = entities.ConnectionStateHasProfile
		conn.Profile = profile
	case errors.Is(err, domainerrors.ErrNotFound):
	default:
		logger.Error(ctx, "Failed to load profile on connect", zap.String("address", conn.Address), zap.Error(err))
		conn.ProfileError = "failed to load profile"
	}
	return conn, nil
}

type CreateInvoiceInput struct {
	CreatorWalletAddress string     `json:"creatorWalletAddress"`
	Amount               string     `json:"amount"`
	Description          string     `json:"description"`
	RecipientEmail       string     `json:"recipientEmail"`
	ChainID              int64      `json:"chainId"`
	TokenSymbol          string     `json:"tokenSymbol"`
	ExpiresAt            *time.Time `json:"expiresAt,omitempty"`
}

type CreateInvoiceOutput struct {
	Invoice  *entities.Invoice     `json:"invoice"`
	ShareURL string                `json:"shareUrl"`
	Phase    entities.CreatorPhase `json:"phase"`
}

// CreateInvoice validates input and inserts a pending invoice.
func (uc *InvoiceUsecase) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*CreateInvoiceOutput, error) {
	if !blockchain.IsValidAddress(input.CreatorWalletAddress) {
		return nil, domainerrors.BadRequest("invalid creator wallet address")
	}
	amount, err := entities.ParseAmount(input.Amount)
	if err != nil {
		return nil, domainerrors.BadRequest("invalid amount")
	}
	recipientEmail := strings.TrimSpace(input.RecipientEmail)
	if recipientEmail != "" {
		if err := uc.validate.Var(recipientEmail, "email"); err != nil {
			return nil, domainerrors.BadRequest("invalid recipient email")
		}
	}

	chainID := input.ChainID
	if chainID == 0 {
		chainID = uc.settings.DefaultChainID
	}
	symbol := strings.ToUpper(strings.TrimSpace(input.TokenSymbol))
	if symbol == "" {
		symbol = uc.settings.DefaultToken
	}
	if _, err := uc.tokens.Lookup(chainID, symbol); err != nil {
		return nil, domainerrors.BadRequest(fmt.Sprintf("%s on %s is not supported", symbol, entities.ChainName(chainID)))
	}

	if input.ExpiresAt != nil && !input.ExpiresAt.After(uc.now()) {
		return nil, domainerrors.BadRequest("expiresAt must be in the future")
	}

	inv := &entities.Invoice{
		ID:                   utils.GenerateUUIDv7(),
		CreatorWalletAddress: entities.NormalizeAddress(input.CreatorWalletAddress),
		RecipientEmail:       entities.StringPtr(recipientEmail),
		Amount:               amount,
		Description:          strings.TrimSpace(input.Description),
		TokenSymbol:          symbol,
		ChainID:              chainID,
		Status:               entities.InvoiceStatusPending,
		ExpiresAt:            input.ExpiresAt,
	}
	if err := uc.invoiceRepo.Create(ctx, inv); err != nil {
		logger.Error(ctx, "Failed to create invoice", zap.Error(err))
		return nil, domainerrors.Failure("failed to create invoice", err)
	}

	uc.metrics.IncInvoiceCreated()
	logger.Info(ctx, "Invoice created", zap.String("invoice_id", inv.ID.String()), zap.String("creator", inv.CreatorWalletAddress))

	return &CreateInvoiceOutput{
		Invoice:  inv,
		ShareURL: uc.ShareURL(inv.ID),
		Phase:    entities.CreatorPhaseCreated,
	}, nil
}

// ShareURL is the payer-facing link for an invoice.
func (uc *InvoiceUsecase) ShareURL(id uuid.UUID) string {
	return uc.settings.AppOrigin + "/invoice/" + id.String()
}

// GetInvoice reports a missing invoice as found=false, never as an error.
// A malformed id cannot match any row and is treated the same way.
func (uc *InvoiceUsecase) GetInvoice(ctx context.Context, id string) (*entities.Invoice, bool, error) {
	invoiceID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, false, nil
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, false, nil
		}
		logger.Error(ctx, "Failed to load invoice", zap.String("invoice_id", id), zap.Error(err))
		return nil, false, domainerrors.Failure("failed to load invoice", err)
	}
	return inv, true, nil
}

// ListInvoices returns a creator's invoices, newest first.
func (uc *InvoiceUsecase) ListInvoices(ctx context.Context, creatorAddress string) ([]*entities.Invoice, error) {
	if !blockchain.IsValidAddress(creatorAddress) {
		return nil, domainerrors.BadRequest("invalid creator wallet address")
	}
	invoices, err := uc.invoiceRepo.ListByCreator(ctx, creatorAddress)
	if err != nil {
		logger.Error(ctx, "Failed to list invoices", zap.Error(err))
		return nil, domainerrors.Failure("failed to load invoices", err)
	}
	return invoices, nil
}

type InvoiceSummary struct {
	Invoice         *entities.Invoice `json:"invoice"`
	ChainName       string            `json:"chainName"`
	FormattedAmount string            `json:"formattedAmount"`
	TokenAddress    string            `json:"tokenAddress,omitempty"`
	ShareURL        string            `json:"shareUrl"`
}

// InvoiceSummary backs the print-friendly invoice view.
func (uc *InvoiceUsecase) InvoiceSummary(ctx context.Context, id string) (*InvoiceSummary, error) {
	inv, err := uc.mustGetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := &InvoiceSummary{
		Invoice:         inv,
		ChainName:       entities.ChainName(inv.ChainID),
		FormattedAmount: inv.Amount.String() + " " + inv.TokenSymbol,
		ShareURL:        uc.ShareURL(inv.ID),
	}
	if token, err := uc.tokens.Lookup(inv.ChainID, inv.TokenSymbol); err == nil {
		summary.TokenAddress = token.Address
	}
	return summary, nil
}

type InitiatePaymentInput struct {
	PayerAddress           string  `json:"payerAddress"`
	Email                  *string `json:"email,omitempty"`
	RequestPhysicalAddress bool    `json:"requestPhysicalAddress"`
}

// Call is one entry of a wallet_sendCalls batch.
type Call struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

type PaymentCapabilities struct {
	DataCallback entities.DataCallbackCapability `json:"dataCallback"`
}

// PaymentIntent is what the payer's wallet submits.
type PaymentIntent struct {
	AttemptID    uuid.UUID             `json:"attemptId"`
	ChainID      int64                 `json:"chainId"`
	Calls        []Call                `json:"calls"`
	Capabilities PaymentCapabilities   `json:"capabilities"`
	Phase        entities.PaymentPhase `json:"phase"`
}

// InitiatePayment builds the ERC20 transfer batch and opens a new attempt.
// Each attempt has its own settlement latch.
func (uc *InvoiceUsecase) InitiatePayment(ctx context.Context, id string, input InitiatePaymentInput) (*PaymentIntent, error) {
	inv, err := uc.mustGetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.IsPayable(uc.now()) {
		return nil, domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeNotPayable, "invoice is not payable", domainerrors.ErrInvoiceNotPending)
	}
	if !blockchain.IsValidAddress(input.PayerAddress) {
		return nil, domainerrors.BadRequest("invalid payer address")
	}
	formEmail, err := uc.optionalEmail(input.Email)
	if err != nil {
		return nil, err
	}

	transfer, err := uc.invoiceTransfer(inv)
	if err != nil {
		return nil, err
	}
	data, err := blockchain.EncodeTransfer(transfer.To, transfer.Amount)
	if err != nil {
		return nil, domainerrors.BadRequest("invoice cannot be paid: " + err.Error())
	}
	if err := uc.checkBalance(ctx, inv.ChainID, transfer, input.PayerAddress); err != nil {
		return nil, err
	}

	now := uc.now()
	attempt := &entities.PaymentAttempt{
		ID:           utils.GenerateUUIDv7(),
		InvoiceID:    inv.ID,
		PayerAddress: entities.NormalizeAddress(input.PayerAddress),
		FormEmail:    formEmail,
		Phase:        entities.PaymentPhaseAwaiting,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := attempt.Advance(entities.PaymentPhasePending, now); err != nil {
		return nil, domainerrors.InternalError(err)
	}
	if err := uc.attempts.Save(ctx, attempt); err != nil {
		logger.Error(ctx, "Failed to store payment attempt", zap.Error(err))
		return nil, domainerrors.Failure("failed to start payment", err)
	}

	requests := []entities.DataCallbackRequest{{Type: entities.DataCallbackEmail, Optional: false}}
	if input.RequestPhysicalAddress {
		requests = append(requests, entities.DataCallbackRequest{Type: entities.DataCallbackPhysicalAddress, Optional: true})
	}

	logger.Info(ctx, "Payment attempt started",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("attempt_id", attempt.ID.String()),
	)

	return &PaymentIntent{
		AttemptID: attempt.ID,
		ChainID:   inv.ChainID,
		Calls: []Call{{
			To:    transfer.Token,
			Data:  "0x" + hex.EncodeToString(data),
			Value: "0x0",
		}},
		Capabilities: PaymentCapabilities{
			DataCallback: entities.DataCallbackCapability{
				Requests:    requests,
				CallbackURL: uc.settings.CallbackURL,
			},
		},
		Phase: attempt.Phase,
	}, nil
}

// invoiceTransfer resolves the token movement that pays inv.
func (uc *InvoiceUsecase) invoiceTransfer(inv *entities.Invoice) (blockchain.Transfer, error) {
	token, err := uc.tokens.Lookup(inv.ChainID, inv.TokenSymbol)
	if err != nil {
		return blockchain.Transfer{}, domainerrors.BadRequest("invoice token is not supported")
	}
	units, err := inv.Amount.ToSmallestUnit(token.Decimals)
	if err != nil {
		return blockchain.Transfer{}, domainerrors.BadRequest("invalid invoice amount")
	}
	if units.Sign() <= 0 {
		return blockchain.Transfer{}, domainerrors.BadRequest("invoice amount is below the token's smallest unit")
	}
	return blockchain.Transfer{Token: token.Address, To: inv.CreatorWalletAddress, Amount: units}, nil
}

// checkBalance rejects a payer who cannot cover the transfer. A failed read
// does not block the payment; the wallet reports its own errors.
func (uc *InvoiceUsecase) checkBalance(ctx context.Context, chainID int64, transfer blockchain.Transfer, payer string) error {
	if uc.balances == nil {
		return nil
	}
	balance, err := uc.balances.TokenBalance(ctx, chainID, transfer.Token, payer)
	if err != nil {
		logger.Warn(ctx, "Failed to read payer balance", zap.String("payer", payer), zap.Error(err))
		return nil
	}
	if balance.Cmp(transfer.Amount) < 0 {
		return domainerrors.NewAppError(http.StatusPaymentRequired, domainerrors.CodeLowBalance, "insufficient token balance", domainerrors.ErrPaymentFailed)
	}
	return nil
}

// ReportPaymentFailure records a rejected or reverted transaction reported by
// the wallet. The invoice itself is left untouched.
func (uc *InvoiceUsecase) ReportPaymentFailure(ctx context.Context, invoiceID, attemptID, reason string) (*entities.PaymentAttempt, error) {
	attempt, err := uc.loadAttempt(ctx, invoiceID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := attempt.Advance(entities.PaymentPhaseFailed, uc.now()); err != nil {
		return nil, domainerrors.Conflict("payment attempt is already "+string(attempt.Phase), err)
	}
	attempt.FailureReason = strings.TrimSpace(reason)
	if attempt.FailureReason == "" {
		attempt.FailureReason = "Payment failed"
	}
	if err := uc.attempts.Save(ctx, attempt); err != nil {
		return nil, domainerrors.Failure("failed to record payment failure", err)
	}
	uc.metrics.IncSettlement("failed")
	logger.Warn(ctx, "Payment attempt failed",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("reason", attempt.FailureReason),
	)
	return attempt, nil
}

type SettlePaymentInput struct {
	AttemptID       string                  `json:"attemptId"`
	PayerAddress    string                  `json:"payerAddress"`
	TransactionHash string                  `json:"transactionHash"`
	DataCallback    *entities.RequestedInfo `json:"dataCallback,omitempty"`
}

type NotificationReport struct {
	Confirmation entities.NotificationOutcome `json:"confirmation"`
	Receipt      entities.NotificationOutcome `json:"receipt"`
}

type SettlementResult struct {
	Invoice          *entities.Invoice     `json:"invoice"`
	AlreadyProcessed bool                  `json:"alreadyProcessed"`
	Phase            entities.PaymentPhase `json:"phase"`
	PayerEmail       string                `json:"payerEmail,omitempty"`
	ProfileSaved     bool                  `json:"profileSaved"`
	Notifications    NotificationReport    `json:"notifications"`
}

// SettlePayment handles the wallet's completion signal. It runs at most once
// per attempt: update the invoice, notify the creator, then resolve and
// notify the payer. Notification and profile failures are reported, not
// rolled back.
func (uc *InvoiceUsecase) SettlePayment(ctx context.Context, invoiceID string, input SettlePaymentInput) (*SettlementResult, error) {
	if !blockchain.IsValidTxHash(input.TransactionHash) {
		return nil, domainerrors.BadRequest("invalid transaction hash")
	}
	if !blockchain.IsValidAddress(input.PayerAddress) {
		return nil, domainerrors.BadRequest("invalid payer address")
	}
	attempt, err := uc.loadAttempt(ctx, invoiceID, input.AttemptID)
	if err != nil {
		return nil, err
	}
	if entities.NormalizeAddress(input.PayerAddress) != attempt.PayerAddress {
		return nil, domainerrors.BadRequest("payer address does not match the payment attempt")
	}

	acquired, err := uc.attempts.AcquireSettlement(ctx, attempt.ID)
	if err != nil {
		return nil, domainerrors.Failure("failed to record payment", err)
	}
	if !acquired {
		uc.metrics.IncSettlement("duplicate")
		inv, _, err := uc.GetInvoice(ctx, invoiceID)
		if err != nil {
			// the signal was already handled; a missing snapshot is not a failure
			logger.Warn(ctx, "Failed to load invoice for duplicate settlement", zap.String("invoice_id", invoiceID), zap.Error(err))
		}
		return &SettlementResult{Invoice: inv, AlreadyProcessed: true, Phase: attempt.Phase}, nil
	}

	// Until the invoice row is written, give the latch back on failure so the
	// same signal can be delivered again.
	release := func() {
		if err := uc.attempts.ReleaseSettlement(ctx, attempt.ID); err != nil {
			logger.Error(ctx, "Failed to release settlement latch", zap.String("attempt_id", attempt.ID.String()), zap.Error(err))
		}
	}

	if attempt.Phase != entities.PaymentPhasePending {
		release()
		return nil, domainerrors.Conflict("payment attempt is "+string(attempt.Phase), domainerrors.ErrInvalidTransition)
	}

	inv, err := uc.mustGetInvoice(ctx, invoiceID)
	if err != nil {
		release()
		return nil, err
	}

	if uc.verifier != nil {
		transfer, err := uc.invoiceTransfer(inv)
		if err != nil {
			release()
			return nil, err
		}
		ok, err := uc.verifier.VerifyTransfer(ctx, inv.ChainID, input.TransactionHash, transfer)
		if err != nil {
			release()
			logger.Error(ctx, "Failed to verify transaction", zap.String("tx_hash", input.TransactionHash), zap.Error(err))
			return nil, domainerrors.Failure("failed to verify transaction", err)
		}
		if !ok {
			uc.failAttempt(ctx, attempt, "transaction does not pay the invoice")
			return nil, domainerrors.NewAppError(http.StatusPaymentRequired, domainerrors.CodePaymentFailed, "transaction does not pay the invoice", domainerrors.ErrPaymentFailed)
		}
	}

	paid, err := uc.invoiceRepo.MarkPaid(ctx, inv.ID, attempt.PayerAddress, input.TransactionHash)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrInvoiceNotPending):
			uc.failAttempt(ctx, attempt, "invoice is no longer pending")
			return nil, domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeNotPayable, "invoice is no longer pending", err)
		case errors.Is(err, domainerrors.ErrNotFound):
			release()
			return nil, domainerrors.NotFound(domainerrors.CodeInvoiceNotFound, "invoice not found")
		default:
			release()
			logger.Error(ctx, "Failed to record payment", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			return nil, domainerrors.Failure("failed to record payment", err)
		}
	}

	now := uc.now()
	if err := attempt.Advance(entities.PaymentPhaseSucceeded, now); err != nil {
		logger.Warn(ctx, "Unexpected attempt phase after payment", zap.String("attempt_id", attempt.ID.String()), zap.String("phase", string(attempt.Phase)))
	}
	attempt.TxHash = input.TransactionHash
	if err := uc.attempts.Save(ctx, attempt); err != nil {
		logger.Warn(ctx, "Failed to store settled attempt", zap.String("attempt_id", attempt.ID.String()), zap.Error(err))
	}
	uc.metrics.IncSettlement("settled")
	logger.Info(ctx, "Invoice paid",
		zap.String("invoice_id", paid.ID.String()),
		zap.String("tx_hash", input.TransactionHash),
	)

	result := &SettlementResult{
		Invoice: paid,
		Phase:   attempt.Phase,
		Notifications: NotificationReport{
			Confirmation: entities.NotificationSkipped,
			Receipt:      entities.NotificationSkipped,
		},
	}
	emailInvoice := toEmailInvoice(paid, input.TransactionHash)

	creatorEmail := ""
	creator, err := uc.profileRepo.GetByWalletAddress(ctx, paid.CreatorWalletAddress)
	switch {
	case err == nil && creator.Email != "":
		creatorEmail = creator.Email
		result.Notifications.Confirmation = uc.notify(ctx, &entities.EmailNotificationRequest{
			Type:         entities.NotificationPaymentConfirmation,
			Invoice:      emailInvoice,
			CreatorEmail: creatorEmail,
		})
	case err != nil && !errors.Is(err, domainerrors.ErrNotFound):
		logger.Error(ctx, "Failed to load creator profile", zap.Error(err))
		result.Notifications.Confirmation = entities.NotificationFailed
	}

	payerEmail, fresh := uc.resolvePayerEmail(ctx, attempt, input.DataCallback)
	if payerEmail == "" {
		return result, nil
	}
	result.PayerEmail = payerEmail
	if fresh != "" {
		if _, err := uc.profileRepo.Upsert(ctx, attempt.PayerAddress, fresh); err != nil {
			logger.Error(ctx, "Failed to save payer profile", zap.Error(err))
		} else {
			result.ProfileSaved = true
		}
	}

	// The notifier contract requires creator_email even though receipts go to the payer.
	if creatorEmail == "" {
		creatorEmail = payerEmail
	}
	result.Notifications.Receipt = uc.notify(ctx, &entities.EmailNotificationRequest{
		Type:         entities.NotificationPaymentReceipt,
		Invoice:      emailInvoice,
		CreatorEmail: creatorEmail,
		PayerEmail:   &payerEmail,
	})
	return result, nil
}

// resolvePayerEmail picks the payer address most recently supplied: the wallet
// data callback, then the form, then a saved profile. fresh is set when the
// chosen e-mail differs from the stored profile and should be saved.
func (uc *InvoiceUsecase) resolvePayerEmail(ctx context.Context, attempt *entities.PaymentAttempt, callback *entities.RequestedInfo) (email, fresh string) {
	var supplied string
	if callback != nil && callback.Email != nil {
		supplied = strings.TrimSpace(*callback.Email)
	}
	if supplied == "" {
		supplied = strings.TrimSpace(entities.StringValue(attempt.FormEmail))
	}

	stored := ""
	profile, err := uc.profileRepo.GetByWalletAddress(ctx, attempt.PayerAddress)
	switch {
	case err == nil:
		stored = profile.Email
	case !errors.Is(err, domainerrors.ErrNotFound):
		logger.Warn(ctx, "Failed to load payer profile", zap.Error(err))
	}

	if supplied == "" {
		return stored, ""
	}
	if uc.validate.Var(supplied, "email") != nil {
		logger.Warn(ctx, "Ignoring malformed payer email")
		return stored, ""
	}
	if !strings.EqualFold(supplied, stored) {
		return supplied, supplied
	}
	return supplied, ""
}

type MarkPaidInput struct {
	CreatorWalletAddress string  `json:"creatorWalletAddress"`
	CreatorEmail         *string `json:"creatorEmail,omitempty"`
}

type ManualPaymentResult struct {
	Invoice      *entities.Invoice            `json:"invoice"`
	Notification entities.NotificationOutcome `json:"notification"`
	Warning      string                       `json:"warning,omitempty"`
}

// MarkPaidManually settles an invoice confirmed off-band. The status change
// stands even when the receipt e-mail fails.
func (uc *InvoiceUsecase) MarkPaidManually(ctx context.Context, id string, input MarkPaidInput) (*ManualPaymentResult, error) {
	inv, err := uc.mustGetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !blockchain.IsValidAddress(input.CreatorWalletAddress) {
		return nil, domainerrors.BadRequest("invalid creator wallet address")
	}
	if entities.NormalizeAddress(input.CreatorWalletAddress) != inv.CreatorWalletAddress {
		return nil, domainerrors.Forbidden("only the invoice creator can mark it as paid")
	}

	creatorEmail, err := uc.optionalEmail(input.CreatorEmail)
	if err != nil {
		return nil, err
	}
	if creatorEmail == nil {
		profile, err := uc.profileRepo.GetByWalletAddress(ctx, inv.CreatorWalletAddress)
		switch {
		case err == nil && profile.Email != "":
			creatorEmail = &profile.Email
		case err != nil && !errors.Is(err, domainerrors.ErrNotFound):
			return nil, domainerrors.Failure("failed to load profile", err)
		}
	}
	if creatorEmail == nil {
		return nil, domainerrors.BadRequest("creator email is required to mark an invoice as paid")
	}

	next := *inv
	if err := next.TransitionTo(entities.InvoiceStatusPaid); err != nil {
		return nil, domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeNotPayable, "invoice is already "+string(inv.Status), domainerrors.ErrInvoiceNotPending)
	}
	paid, err := uc.invoiceRepo.MarkPaidManually(ctx, inv.ID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvoiceNotPending) {
			return nil, domainerrors.NewAppError(http.StatusConflict, domainerrors.CodeNotPayable, "invoice is no longer pending", err)
		}
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodeInvoiceNotFound, "invoice not found")
		}
		logger.Error(ctx, "Failed to mark invoice paid", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
		return nil, domainerrors.Failure("failed to update invoice", err)
	}
	logger.Info(ctx, "Invoice marked as paid manually", zap.String("invoice_id", paid.ID.String()))

	result := &ManualPaymentResult{Invoice: paid, Notification: entities.NotificationSkipped}
	if paid.RecipientEmail == nil {
		result.Warning = "invoice marked as paid; no recipient email on file, receipt not sent"
		return result, nil
	}

	result.Notification = uc.notify(ctx, &entities.EmailNotificationRequest{
		Type:         entities.NotificationPaymentReceipt,
		Invoice:      toEmailInvoice(paid, entities.ManualPaymentHash),
		CreatorEmail: *creatorEmail,
		PayerEmail:   paid.RecipientEmail,
	})
	if result.Notification == entities.NotificationFailed {
		result.Warning = "invoice marked as paid, but the receipt email could not be sent"
	}
	return result, nil
}

func (uc *InvoiceUsecase) notify(ctx context.Context, req *entities.EmailNotificationRequest) entities.NotificationOutcome {
	if uc.notifier == nil {
		return entities.NotificationSkipped
	}
	if _, err := uc.notifier.Send(ctx, req); err != nil {
		logger.Warn(ctx, "Notification failed",
			zap.String("type", string(req.Type)),
			zap.String("invoice_id", req.Invoice.ID),
			zap.Error(err),
		)
		return entities.NotificationFailed
	}
	return entities.NotificationSent
}

func (uc *InvoiceUsecase) failAttempt(ctx context.Context, attempt *entities.PaymentAttempt, reason string) {
	if err := attempt.Advance(entities.PaymentPhaseFailed, uc.now()); err != nil {
		return
	}
	attempt.FailureReason = reason
	if err := uc.attempts.Save(ctx, attempt); err != nil {
		logger.Warn(ctx, "Failed to store failed attempt", zap.String("attempt_id", attempt.ID.String()), zap.Error(err))
	}
	uc.metrics.IncSettlement("failed")
}

func (uc *InvoiceUsecase) mustGetInvoice(ctx context.Context, id string) (*entities.Invoice, error) {
	inv, found, err := uc.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domainerrors.NotFound(domainerrors.CodeInvoiceNotFound, "invoice not found")
	}
	return inv, nil
}

func (uc *InvoiceUsecase) loadAttempt(ctx context.Context, invoiceID, attemptID string) (*entities.PaymentAttempt, error) {
	notFound := domainerrors.NotFound(domainerrors.CodeAttemptNotFound, "payment attempt not found")
	aid, err := uuid.Parse(strings.TrimSpace(attemptID))
	if err != nil {
		return nil, notFound
	}
	attempt, err := uc.attempts.Get(ctx, aid)
	if err != nil {
		if errors.Is(err, domainerrors.ErrAttemptNotFound) {
			return nil, notFound
		}
		return nil, domainerrors.Failure("failed to load payment attempt", err)
	}
	if attempt.InvoiceID.String() != strings.ToLower(strings.TrimSpace(invoiceID)) {
		return nil, notFound
	}
	return attempt, nil
}

func (uc *InvoiceUsecase) optionalEmail(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	email := strings.TrimSpace(*p)
	if email == "" {
		return nil, nil
	}
	if err := uc.validate.Var(email, "email"); err != nil {
		return nil, domainerrors.BadRequest("invalid email address")
	}
	return &email, nil
}

func toEmailInvoice(inv *entities.Invoice, paymentHash string) *entities.EmailInvoice {
	return &entities.EmailInvoice{
		ID:                   inv.ID.String(),
		Amount:               inv.Amount,
		Description:          inv.Description,
		CreatorWalletAddress: inv.CreatorWalletAddress,
		RecipientAddress:     entities.StringValue(inv.RecipientAddress),
		PaymentHash:          paymentHash,
		CreatedAt:            inv.CreatedAt.UTC().Format(time.RFC3339),
		TokenSymbol:          inv.TokenSymbol,
	}
}
