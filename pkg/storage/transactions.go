package storage

import (
	"context"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
)

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// FindEarningByEngagement returns the earning transaction of an engagement, or ErrNotFound.
	FindEarningByEngagement(ctx context.Context, engagementID string) (*models.Transaction, error)

	// ListTransactionsByUser retrieves a user's transactions, newest first. An empty type matches all.
	ListTransactionsByUser(ctx context.Context, userID string, txType models.TransactionType) ([]models.Transaction, error)

	// ListStalePendingWithdrawals retrieves withdrawals still pending since before cutoff.
	ListStalePendingWithdrawals(ctx context.Context, cutoff time.Time) ([]models.Transaction, error)

	// ListTransactionsNeedingReconciliation retrieves transactions flagged for manual reconciliation.
	ListTransactionsNeedingReconciliation(ctx context.Context) ([]models.Transaction, error)
}

// TransactionManager defines the interface for moving transactions through their lifecycle.
type TransactionManager interface {
	// CreateTransaction stores a new transaction without any balance effect.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// SetExternalReference records the gateway's reference for a transaction.
	SetExternalReference(ctx context.Context, txID, reference string) error

	// CompleteTransaction moves a pending transaction to completed, applying its
	// balance effect and ledger entry in the same atomic unit unless the effect
	// was applied at creation. It returns false without error if the
	// transaction was already completed, and ErrTransactionNotPending if it is
	// in another terminal state.
	CompleteTransaction(ctx context.Context, txID, externalReference string) (bool, error)

	// FailTransaction moves a pending transaction without an applied effect to
	// failed. It returns false without error if it was already terminal.
	FailTransaction(ctx context.Context, txID, reason string) (bool, error)

	// ReserveWithdrawal atomically stores a pending withdrawal, debits the
	// user's balance and records the ledger debit.
	// Returns ErrInsufficientFunds if the balance cannot cover the amount.
	ReserveWithdrawal(ctx context.Context, tx *models.Transaction) error

	// CompensateWithdrawal atomically fails a pending withdrawal, re-credits the
	// balance and records the reversing ledger entry. It returns false without
	// error if the withdrawal was already terminal.
	CompensateWithdrawal(ctx context.Context, txID, reason string, needsReconciliation bool) (bool, error)

	// FlagForReconciliation marks a transaction for manual follow-up.
	FlagForReconciliation(ctx context.Context, txID, reason string) error
}

// TransactionStore combines the reader and manager interfaces.
type TransactionStore interface {
	TransactionReader
	TransactionManager
}
