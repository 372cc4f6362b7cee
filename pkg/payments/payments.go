// Package payments funds wallets through the payment gateway and settles the
// gateway's webhook events.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/gateway"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/scheduler"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/google/uuid"
)

// FeePercent is the deposit fee charged on top of the credited amount.
const FeePercent = 10

// Store is the data access deposits need.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	CompleteTransaction(ctx context.Context, txID, externalReference string) (bool, error)
	FailTransaction(ctx context.Context, txID, reason string) (bool, error)
}

// TransferSettler applies transfer outcomes to withdrawals.
type TransferSettler interface {
	SettleTransfer(ctx context.Context, txID string, status gateway.TransferStatus, transferCode string) error
}

// Notifier is told about users whose balance changed.
type Notifier interface {
	NotifyBalanceChanged(ctx context.Context, userID string)
}

// Deposit is an initialized deposit awaiting the user's payment.
type Deposit struct {
	TransactionID    string `json:"transaction_id"`
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	BaseAmount       int64  `json:"base_amount"`
	Fee              int64  `json:"fee"`
	ChargedAmount    int64  `json:"charged_amount"`
}

// Service implements deposits and webhook settlement.
type Service struct {
	store       Store
	gateway     gateway.Gateway
	transfers   TransferSettler
	scheduler   scheduler.Scheduler
	notifier    Notifier
	logger      *slog.Logger
	callbackURL string
}

// Option configures a Service.
type Option func(*Service)

// WithScheduler defers webhook settlement to the settlement worker.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(svc *Service) { svc.scheduler = s }
}

// WithNotifier pushes balance changes to connected clients.
func WithNotifier(n Notifier) Option {
	return func(svc *Service) { svc.notifier = n }
}

// WithCallbackURL sets where the gateway sends the user after paying.
func WithCallbackURL(url string) Option {
	return func(svc *Service) { svc.callbackURL = url }
}

// NewService creates a payments Service.
func NewService(store Store, gw gateway.Gateway, transfers TransferSettler, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{store: store, gateway: gw, transfers: transfers, logger: logger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Fee returns the deposit fee for baseAmount, rounded down.
func Fee(baseAmount int64) int64 {
	return baseAmount * FeePercent / 100
}

// InitializeDeposit records a pending deposit of baseAmount and opens a gateway
// charge for baseAmount plus the fee.
func (s *Service) InitializeDeposit(ctx context.Context, userID string, baseAmount int64) (*Deposit, error) {
	if baseAmount <= 0 {
		return nil, apperrors.Validation("a positive amount is required")
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}

	fee := Fee(baseAmount)
	now := time.Now().UTC()
	tx := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          models.TransactionDeposit,
		Amount:        baseAmount,
		Currency:      "NGN",
		Status:        models.TransactionPending,
		Description:   fmt.Sprintf("Wallet deposit of %d", baseAmount),
		PaymentMethod: "paystack",
		Details: models.TransactionDetails{Deposit: &models.DepositDetails{
			BaseAmount:    baseAmount,
			Fee:           fee,
			ChargedAmount: baseAmount + fee,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, apperrors.FromStore(err)
	}

	charge, err := s.gateway.InitializeCharge(ctx, gateway.ChargeRequest{
		Amount:      baseAmount + fee,
		Email:       user.Email,
		Reference:   tx.ID,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		s.logger.Error("failed to initialize charge", "transaction_id", tx.ID, "error", err)
		if _, ferr := s.store.FailTransaction(context.WithoutCancel(ctx), tx.ID, "charge initialization failed"); ferr != nil {
			s.logger.Error("failed to fail deposit", "transaction_id", tx.ID, "error", ferr)
		}
		return nil, apperrors.Wrap(apperrors.ErrGatewayFailure, err)
	}

	return &Deposit{
		TransactionID:    tx.ID,
		AuthorizationURL: charge.AuthorizationURL,
		Reference:        charge.Reference,
		BaseAmount:       baseAmount,
		Fee:              fee,
		ChargedAmount:    baseAmount + fee,
	}, nil
}

// HandleWebhook authenticates a raw webhook body and settles or schedules its event.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return apperrors.ErrInvalidSignature
	}

	var event models.GatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.Validation("malformed webhook body")
	}
	if event.Data.Reference == "" {
		s.logger.Info("ignoring webhook without reference", "event", event.Event)
		return nil
	}

	if s.scheduler != nil {
		if err := s.scheduler.ScheduleEvent(ctx, &event); err != nil {
			return apperrors.Internal(err)
		}
		return nil
	}
	return s.ProcessEvent(ctx, &event)
}

// ProcessEvent settles a verified gateway event. It is safe to call more than
// once for the same event.
func (s *Service) ProcessEvent(ctx context.Context, event *models.GatewayEvent) error {
	ref := event.Data.Reference
	switch event.Event {
	case models.EventChargeSuccess:
		return s.settleCharge(ctx, ref, event.Data.Amount)
	case models.EventChargeFailed:
		tx, err := s.deposit(ctx, ref)
		if err != nil || tx == nil {
			return err
		}
		if _, err := s.store.FailTransaction(ctx, ref, "charge failed"); err != nil {
			return apperrors.FromStore(err)
		}
		return nil
	case models.EventTransferSuccess:
		return s.settleTransfer(ctx, ref, gateway.TransferSuccess, event.Data.TransferCode)
	case models.EventTransferFailed:
		return s.settleTransfer(ctx, ref, gateway.TransferFailed, event.Data.TransferCode)
	case models.EventTransferReversed:
		return s.settleTransfer(ctx, ref, gateway.TransferReversed, event.Data.TransferCode)
	default:
		s.logger.Debug("ignoring unhandled webhook event", "event", event.Event)
		return nil
	}
}

func (s *Service) settleCharge(ctx context.Context, ref string, paid int64) error {
	tx, err := s.deposit(ctx, ref)
	if err != nil || tx == nil {
		return err
	}

	charged := tx.Amount
	if tx.Details.Deposit != nil {
		charged = tx.Details.Deposit.ChargedAmount
	}
	if paid != gateway.ToKobo(charged) {
		s.logger.Error("deposit amount mismatch", "transaction_id", ref, "expected", gateway.ToKobo(charged), "paid", paid)
		if _, err := s.store.FailTransaction(ctx, ref, fmt.Sprintf("amount mismatch: expected %d, paid %d", gateway.ToKobo(charged), paid)); err != nil {
			return apperrors.FromStore(err)
		}
		return nil
	}

	done, err := s.store.CompleteTransaction(ctx, ref, ref)
	switch {
	case errors.Is(err, storage.ErrTransactionNotPending):
		s.logger.Warn("charge succeeded for a settled deposit", "transaction_id", ref)
		return nil
	case err != nil:
		return apperrors.FromStore(err)
	}
	if done {
		s.logger.Info("deposit completed", "transaction_id", ref, "user_id", tx.UserID, "amount", tx.Amount)
		if s.notifier != nil {
			s.notifier.NotifyBalanceChanged(ctx, tx.UserID)
		}
	}
	return nil
}

func (s *Service) settleTransfer(ctx context.Context, ref string, status gateway.TransferStatus, code string) error {
	err := s.transfers.SettleTransfer(ctx, ref, status, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Info("ignoring transfer event for unknown reference", "reference", ref)
		return nil
	}
	return err
}

// deposit returns the deposit behind a reference, or nil for references this
// service does not own.
func (s *Service) deposit(ctx context.Context, ref string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, ref)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Info("ignoring charge event for unknown reference", "reference", ref)
		return nil, nil
	case err != nil:
		return nil, apperrors.FromStore(err)
	case tx.Type != models.TransactionDeposit:
		s.logger.Warn("ignoring charge event for non-deposit transaction", "reference", ref, "type", tx.Type)
		return nil, nil
	}
	return tx, nil
}
