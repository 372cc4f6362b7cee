// Package payouts links payout accounts and runs the withdrawal saga: reserve
// the funds, attempt the transfer, and compensate when the transfer fails.
package payouts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/gateway"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/google/uuid"
)

const (
	MinWithdrawal        int64   = 5000
	RequiredApprovalRate float64 = 0.80
	DefaultTimeout               = 15 * time.Second
)

// Store is the data access the payout engine needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	SetPayoutRecipient(ctx context.Context, userID string, recipient models.PayoutRecipient) error
	CountEngagementsByUser(ctx context.Context, userID string) (total int64, approved int64, err error)
	storage.TransactionStore
}

// Sweeper settles engagements left pending past their grace period.
type Sweeper interface {
	AutoApprove(ctx context.Context, now time.Time) (int, error)
}

// Notifier is told about users whose balance changed.
type Notifier interface {
	NotifyBalanceChanged(ctx context.Context, userID string)
}

// Eligibility summarises whether a user may withdraw.
type Eligibility struct {
	Balance             int64   `json:"balance"`
	TotalEngagements    int64   `json:"total_engagements"`
	ApprovedEngagements int64   `json:"approved_engagements"`
	ApprovalRate        float64 `json:"approval_rate"`
	RequiredRate        float64 `json:"required_rate"`
	MinWithdrawal       int64   `json:"min_withdrawal"`
	HasPayoutAccount    bool    `json:"has_payout_account"`
	Eligible            bool    `json:"eligible"`
}

// Service implements payouts.
type Service struct {
	store    Store
	gateway  gateway.Gateway
	sweeper  Sweeper
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewService creates a payout Service. A zero timeout uses DefaultTimeout;
// sweeper and notifier may be nil.
func NewService(store Store, gw gateway.Gateway, sweeper Sweeper, notifier Notifier, logger *slog.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:    store,
		gateway:  gw,
		sweeper:  sweeper,
		notifier: notifier,
		logger:   logger,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddRecipient verifies a bank account with the gateway and links it to the user.
func (s *Service) AddRecipient(ctx context.Context, userID, bankCode, accountNumber string) (*models.PayoutRecipient, error) {
	bankCode = strings.TrimSpace(bankCode)
	accountNumber = strings.TrimSpace(accountNumber)
	if bankCode == "" || accountNumber == "" {
		return nil, apperrors.Validation("bank code and account number are required")
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}

	recipient, err := s.gateway.CreatePayoutRecipient(ctx, gateway.RecipientRequest{
		Name:          user.Name,
		BankCode:      bankCode,
		AccountNumber: accountNumber,
	})
	if err != nil {
		s.logger.Warn("payout recipient verification failed", "user_id", userID, "error", err)
		return nil, apperrors.Validation("failed to verify account details with the payment provider")
	}

	number := recipient.AccountNumber
	if number == "" {
		number = accountNumber
	}
	linked := models.PayoutRecipient{
		RecipientCode:      recipient.RecipientCode,
		BankName:           recipient.BankName,
		AccountNumberLast4: number[max(len(number)-4, 0):],
	}
	if err := s.store.SetPayoutRecipient(ctx, userID, linked); err != nil {
		return nil, apperrors.FromStore(err)
	}
	s.logger.Info("payout recipient linked", "user_id", userID, "bank", linked.BankName)
	return &linked, nil
}

// Eligibility runs the auto-approval sweep and then evaluates the user's reputation.
func (s *Service) Eligibility(ctx context.Context, userID string) (*Eligibility, error) {
	if s.sweeper != nil {
		if _, err := s.sweeper.AutoApprove(ctx, s.now()); err != nil {
			s.logger.Error("auto-approval sweep failed", "error", err)
		}
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	total, approved, err := s.store.CountEngagementsByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}

	rate := 1.0
	if total > 0 {
		rate = float64(approved) / float64(total)
	}
	e := &Eligibility{
		Balance:             user.Balance,
		TotalEngagements:    total,
		ApprovedEngagements: approved,
		ApprovalRate:        rate,
		RequiredRate:        RequiredApprovalRate,
		MinWithdrawal:       MinWithdrawal,
		HasPayoutAccount:    user.HasPayoutAccount(),
	}
	e.Eligible = e.HasPayoutAccount && rate >= RequiredApprovalRate && user.Balance >= MinWithdrawal
	return e, nil
}

// Withdraw pays amount out to the user's linked account.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.Validation("a positive amount is required")
	}

	eligibility, err := s.Eligibility(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case !eligibility.HasPayoutAccount:
		return nil, apperrors.ErrNoPayoutAccount
	case eligibility.Balance < amount:
		return nil, apperrors.New(apperrors.ErrInsufficientFunds, "balance %d cannot cover a withdrawal of %d", eligibility.Balance, amount)
	case amount < MinWithdrawal:
		return nil, apperrors.New(apperrors.ErrBelowMinimum, "minimum withdrawal amount is %d", MinWithdrawal)
	case eligibility.ApprovalRate < RequiredApprovalRate:
		return nil, apperrors.New(apperrors.ErrReputationTooLow,
			"your engagement approval rate is %.0f%%, but it must be at least %.0f%%",
			eligibility.ApprovalRate*100, RequiredApprovalRate*100)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}

	// 1. Record the intent and reserve the funds.
	now := s.now()
	tx := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        userID,
		Type:          models.TransactionWithdrawal,
		Amount:        amount,
		Currency:      "NGN",
		Description:   fmt.Sprintf("Withdrawal to %s (%s)", user.PayoutRecipient.BankName, user.PayoutRecipient.AccountNumberLast4),
		PaymentMethod: "paystack",
		Details: models.TransactionDetails{Withdrawal: &models.WithdrawalDetails{
			RecipientCode: user.PayoutRecipient.RecipientCode,
			BankName:      user.PayoutRecipient.BankName,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.ReserveWithdrawal(ctx, tx); err != nil {
		return nil, apperrors.FromStore(err)
	}
	s.notify(ctx, userID)

	// 2. Attempt the transfer. The saga finishes even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	transfer, err := s.initiate(ctx, tx, user.Email)
	if err != nil {
		// 3. Compensate. Unless the gateway definitively rejected the transfer
		// the outcome is unknown and the withdrawal is flagged for reconciliation.
		ambiguous := !errors.Is(err, gateway.ErrRejected)
		if cerr := s.compensate(ctx, tx.ID, fmt.Sprintf("transfer initiation failed: %v", err), ambiguous); cerr != nil {
			return nil, cerr
		}
		return nil, apperrors.Wrap(apperrors.ErrGatewayFailure, err)
	}

	// 4. Record the gateway's reference and settle if it is already final.
	if err := s.SettleTransfer(ctx, tx.ID, transfer.Status, transfer.TransferCode); err != nil {
		return nil, err
	}
	tx, err = s.reload(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionFailed {
		return nil, apperrors.New(apperrors.ErrGatewayFailure, "transfer %s", transfer.Status)
	}
	return tx, nil
}

func (s *Service) initiate(ctx context.Context, tx *models.Transaction, email string) (*gateway.Transfer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transfer, err := s.gateway.InitiateTransfer(ctx, gateway.TransferRequest{
		Amount:        tx.Amount,
		RecipientCode: tx.Details.Withdrawal.RecipientCode,
		Reference:     tx.ID,
		Reason:        fmt.Sprintf("Earnings withdrawal for %s", email),
	})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return transfer, err
}

// SettleTransfer moves a withdrawal to the state the gateway reports for its transfer.
// Reports for withdrawals that are already terminal are ignored, except a success
// for a compensated withdrawal, which is flagged for reconciliation.
func (s *Service) SettleTransfer(ctx context.Context, txID string, status gateway.TransferStatus, transferCode string) error {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return apperrors.FromStore(err)
	}
	if tx.Type != models.TransactionWithdrawal {
		return apperrors.Validation("transaction %s is not a withdrawal", txID)
	}

	if tx.Status == models.TransactionPending && transferCode != "" && tx.ExternalReference != transferCode {
		if err := s.store.SetExternalReference(ctx, txID, transferCode); err != nil {
			return apperrors.FromStore(err)
		}
	}

	switch status {
	case gateway.TransferSuccess:
		switch tx.Status {
		case models.TransactionPending:
			done, err := s.store.CompleteTransaction(ctx, txID, transferCode)
			if err != nil {
				return apperrors.FromStore(err)
			}
			if done {
				s.logger.Info("withdrawal completed", "transaction_id", txID, "transfer_code", transferCode)
			}
		case models.TransactionFailed:
			s.logger.Error("transfer succeeded for a compensated withdrawal", "transaction_id", txID, "transfer_code", transferCode)
			if err := s.store.FlagForReconciliation(ctx, txID, "transfer succeeded after compensation"); err != nil {
				return apperrors.FromStore(err)
			}
		}
	case gateway.TransferFailed, gateway.TransferReversed:
		if tx.Status != models.TransactionPending {
			s.logger.Info("ignoring transfer report for settled withdrawal", "transaction_id", txID, "status", status)
			return nil
		}
		return s.compensate(ctx, txID, fmt.Sprintf("transfer %s", status), false)
	}
	return nil
}

// ReconcileStale asks the gateway about withdrawals pending since before cutoff
// and settles the ones it has an answer for. It returns how many were settled.
func (s *Service) ReconcileStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.store.ListStalePendingWithdrawals(ctx, cutoff)
	if err != nil {
		return 0, apperrors.FromStore(err)
	}

	settled := 0
	for _, tx := range stale {
		transfer, err := s.gateway.VerifyTransfer(ctx, tx.ID)
		switch {
		case errors.Is(err, gateway.ErrTransferNotFound):
			if err := s.compensate(ctx, tx.ID, "transfer not found at gateway", false); err != nil {
				return settled, err
			}
			settled++
			continue
		case err != nil:
			// Left pending for the next sweep.
			s.logger.Warn("failed to verify stale withdrawal", "transaction_id", tx.ID, "error", err)
			continue
		case transfer.Status == gateway.TransferPending:
			continue
		}
		if err := s.SettleTransfer(ctx, tx.ID, transfer.Status, transfer.TransferCode); err != nil {
			return settled, err
		}
		settled++
	}
	return settled, nil
}

func (s *Service) compensate(ctx context.Context, txID, reason string, needsReconciliation bool) error {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return apperrors.FromStore(err)
	}
	done, err := s.store.CompensateWithdrawal(ctx, txID, reason, needsReconciliation)
	if err != nil {
		s.logger.Error("withdrawal compensation failed", "transaction_id", txID, "error", err)
		return apperrors.FromStore(err)
	}
	if done {
		s.logger.Warn("withdrawal compensated", "transaction_id", txID, "reason", reason, "needs_reconciliation", needsReconciliation)
		s.notify(ctx, tx.UserID)
	}
	return nil
}

func (s *Service) reload(ctx context.Context, txID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return tx, nil
}

func (s *Service) notify(ctx context.Context, userID string) {
	if s.notifier != nil {
		s.notifier.NotifyBalanceChanged(ctx, userID)
	}
}
