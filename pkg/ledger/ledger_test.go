package ledger

import (
	"testing"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestEffect(t *testing.T) {
	cases := map[models.TransactionType]int64{
		models.TransactionDeposit:           100,
		models.TransactionEngagementEarning: 100,
		models.TransactionRefund:            100,
		models.TransactionWithdrawal:        -100,
		models.TransactionCampaignPayment:   -100,
	}
	for typ, want := range cases {
		t.Run(string(typ), func(t *testing.T) {
			assert.Equal(t, want, Effect(models.Transaction{Type: typ, Amount: 100}))
		})
	}
}

func TestEntryFor(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Debit", func(t *testing.T) {
		tx := models.Transaction{ID: "tx-1", UserID: "u1", Type: models.TransactionWithdrawal, Amount: 6000}
		e := EntryFor(tx, now)
		assert.Equal(t, int64(6000), e.Debit)
		assert.Zero(t, e.Credit)
		assert.Equal(t, "u1", e.AccountID)
		assert.Equal(t, "tx-1", e.TransactionID)
		assert.NotEmpty(t, e.EntryID)
	})

	t.Run("Reversal", func(t *testing.T) {
		tx := models.Transaction{ID: "tx-1", UserID: "u1", Type: models.TransactionWithdrawal, Amount: 6000}
		e := ReversalFor(tx, "gateway timeout", now)
		assert.Equal(t, int64(6000), e.Credit)
		assert.Zero(t, e.Debit)
		assert.Contains(t, e.Description, "gateway timeout")
	})
}

func TestReconcile(t *testing.T) {
	user := models.User{ID: "u1", Balance: 5000}
	txs := []models.Transaction{
		{ID: "d", UserID: "u1", Type: models.TransactionDeposit, Amount: 10000, Status: models.TransactionCompleted, BalanceApplied: true},
		{ID: "c", UserID: "u1", Type: models.TransactionCampaignPayment, Amount: 5000, Status: models.TransactionCompleted, BalanceApplied: true},
		{ID: "w", UserID: "u1", Type: models.TransactionWithdrawal, Amount: 7000, Status: models.TransactionFailed},
		{ID: "p", UserID: "u1", Type: models.TransactionEngagementEarning, Amount: 5, Status: models.TransactionPending},
	}
	entries := []models.LedgerEntry{{Credit: 10000}, {Debit: 5000}, {Debit: 7000}, {Credit: 7000}}

	t.Run("Success", func(t *testing.T) {
		assert.NoError(t, Reconcile(user, txs, entries))
	})

	t.Run("Balance Mismatch", func(t *testing.T) {
		drifted := user
		drifted.Balance = 5005
		err := Reconcile(drifted, txs, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "balance mismatch")
	})

	t.Run("Completed Without Effect", func(t *testing.T) {
		bad := append([]models.Transaction{}, txs...)
		bad[3].Status = models.TransactionCompleted
		err := Reconcile(user, bad, nil)
		assert.Error(t, err)
	})
}
