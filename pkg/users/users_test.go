package users

import (
	"context"
	"testing"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore/sqltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	store := sqltest.NewStore(t)
	svc := NewService(store)

	user, err := svc.EnsureUser(ctx, Identity{ID: "u1", Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, int64(0), user.Balance)

	again, err := svc.EnsureUser(ctx, Identity{ID: "u1", Email: "ada@example.com", Name: "Ada L"})
	require.NoError(t, err)
	assert.Equal(t, user.CreatedAt.Unix(), again.CreatedAt.Unix())

	_, err = svc.EnsureUser(ctx, Identity{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	store := sqltest.NewStore(t)
	svc := NewService(store)
	sqltest.SeedUser(t, store, "creator", 1000)
	sqltest.SeedCampaign(t, store, "creator", 100, 5)
	sqltest.SeedCampaign(t, store, "creator", 10, 15)

	a, err := svc.Analytics(ctx, "creator")

	require.NoError(t, err)
	assert.Equal(t, int64(350), a.Balance)
	assert.Equal(t, 2, a.Campaigns.Total)
	assert.Equal(t, 2, a.Campaigns.Active)
	assert.Equal(t, int64(650), a.Campaigns.TotalCost)
	assert.Equal(t, int64(1000), a.Transactions[models.TransactionDeposit])
	assert.Equal(t, int64(650), a.Transactions[models.TransactionCampaignPayment])
	assert.Zero(t, a.Engagements)

	_, err = svc.Analytics(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	store := sqltest.NewStore(t)
	svc := NewService(store)
	sqltest.SeedUser(t, store, "creator", 1000)
	sqltest.SeedCampaign(t, store, "creator", 100, 5)

	txs, err := svc.ListTransactions(ctx, "creator", "")
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	payments, err := svc.ListTransactions(ctx, "creator", models.TransactionCampaignPayment)
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	_, err = svc.ListTransactions(ctx, "creator", "bonus")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	entries, err := svc.ListLedgerEntries(ctx, "creator", 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	tx, err := svc.GetTransaction(ctx, "creator", payments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, payments[0].ID, tx.ID)

	sqltest.SeedUser(t, store, "someone-else", 0)
	_, err = svc.GetTransaction(ctx, "someone-else", payments[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
