// Package ledger holds the pure balance-effect rules shared by every store
// implementation and the settlement services.
package ledger

import (
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/google/uuid"
)

// Effect returns the signed balance effect of a transaction.
func Effect(tx models.Transaction) int64 {
	switch tx.Type {
	case models.TransactionDeposit, models.TransactionEngagementEarning, models.TransactionRefund:
		return tx.Amount
	case models.TransactionWithdrawal, models.TransactionCampaignPayment:
		return -tx.Amount
	default:
		return 0
	}
}

// EntryFor builds the ledger row recording the balance effect of tx.
func EntryFor(tx models.Transaction, now time.Time) models.LedgerEntry {
	entry := models.LedgerEntry{
		EntryID:       uuid.New().String(),
		TransactionID: tx.ID,
		AccountID:     tx.UserID,
		Description:   fmt.Sprintf("%s for transaction %s", tx.Type, tx.ID),
		Timestamp:     now,
	}
	if effect := Effect(tx); effect < 0 {
		entry.Debit = -effect
	} else {
		entry.Credit = effect
	}
	return entry
}

// ReversalFor builds the ledger row that cancels out the effect of tx.
func ReversalFor(tx models.Transaction, reason string, now time.Time) models.LedgerEntry {
	entry := EntryFor(tx, now)
	entry.Debit, entry.Credit = entry.Credit, entry.Debit
	entry.Description = fmt.Sprintf("reversal of %s %s: %s", tx.Type, tx.ID, reason)
	return entry
}

// ExpectedBalance sums the effects of every transaction whose effect is currently applied.
func ExpectedBalance(txs []models.Transaction) int64 {
	var total int64
	for _, tx := range txs {
		if tx.BalanceApplied {
			total += Effect(tx)
		}
	}
	return total
}

// EntriesBalance nets credits against debits.
func EntriesBalance(entries []models.LedgerEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Credit - e.Debit
	}
	return total
}

// Reconcile checks a user's stored balance against their transactions and
// ledger entries. A nil entries slice skips the ledger comparison.
func Reconcile(user models.User, txs []models.Transaction, entries []models.LedgerEntry) error {
	for _, tx := range txs {
		if tx.UserID != user.ID {
			return fmt.Errorf("transaction %s belongs to %s, not %s", tx.ID, tx.UserID, user.ID)
		}
		if tx.Status.Terminal() && tx.BalanceApplied != (tx.Status == models.TransactionCompleted) {
			return fmt.Errorf("transaction %s is %s with balance_applied=%t", tx.ID, tx.Status, tx.BalanceApplied)
		}
	}
	if expected := ExpectedBalance(txs); expected != user.Balance {
		return fmt.Errorf("balance mismatch for user %s: stored %d, transactions %d", user.ID, user.Balance, expected)
	}
	if entries != nil {
		if fromLedger := EntriesBalance(entries); fromLedger != user.Balance {
			return fmt.Errorf("balance mismatch for user %s: stored %d, ledger %d", user.ID, user.Balance, fromLedger)
		}
	}
	return nil
}
