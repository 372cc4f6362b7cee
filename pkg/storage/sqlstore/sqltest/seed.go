package sqltest

import (
	"context"
	"testing"
	"time"

	"github.com/Dxtobi/xplus/pkg/ledger"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SeedUser creates a user and, for a positive balance, settles a deposit of that amount.
func SeedUser(t *testing.T, s *sqlstore.Store, id string, balance int64) *models.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	_, err := s.EnsureUser(ctx, &models.User{ID: id, Email: id + "@example.com", Name: id, CreatedAt: now, LastLoginAt: now})
	require.NoError(t, err)

	if balance > 0 {
		deposit := &models.Transaction{
			ID: uuid.NewString(), UserID: id, Type: models.TransactionDeposit, Amount: balance,
			Currency: "NGN", Status: models.TransactionPending, PaymentMethod: "paystack",
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, s.CreateTransaction(ctx, deposit))
		done, err := s.CompleteTransaction(ctx, deposit.ID, "ref-"+deposit.ID)
		require.NoError(t, err)
		require.True(t, done)
	}

	user, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	return user
}

// Reconcile asserts that the user's balance agrees with their transactions and ledger.
func Reconcile(t *testing.T, s *sqlstore.Store, userID string) {
	t.Helper()
	ctx := context.Background()
	user, err := s.GetUser(ctx, userID)
	require.NoError(t, err)
	txs, err := s.ListTransactionsByUser(ctx, userID, "")
	require.NoError(t, err)
	entries, err := s.ListLedgerEntries(ctx, userID, 0)
	require.NoError(t, err)
	assert.NoError(t, ledger.Reconcile(*user, txs, entries))
}

// Balance returns the user's current balance.
func Balance(t *testing.T, s *sqlstore.Store, userID string) int64 {
	t.Helper()
	user, err := s.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return user.Balance
}

// SeedCampaign funds and opens an active campaign for an owner that can afford it.
func SeedCampaign(t *testing.T, s *sqlstore.Store, ownerID string, target, costPerAction int64) *models.Campaign {
	t.Helper()
	now := time.Now().UTC()
	campaign := &models.Campaign{
		ID: uuid.NewString(), OwnerID: ownerID, Title: "Seeded campaign", Link: "https://x.com/seed/status/1",
		Platform: "Twitter/X", ActionType: "likes", Category: "other", TargetAmount: target,
		CostPerAction: costPerAction, Cost: target * costPerAction, Status: models.CampaignActive,
		ExpiresAt: now.Add(30 * 24 * time.Hour), CreatedAt: now, UpdatedAt: now,
	}
	payment := &models.Transaction{
		ID: uuid.NewString(), UserID: ownerID, Type: models.TransactionCampaignPayment, Amount: campaign.Cost,
		Currency: "NGN", Status: models.TransactionCompleted, CampaignID: campaign.ID, PaymentMethod: "wallet",
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateCampaign(context.Background(), campaign, payment))
	return campaign
}
