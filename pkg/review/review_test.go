package review

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore/sqltest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (n *recordingNotifier) NotifyBalanceChanged(_ context.Context, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
}

func newTestService(t *testing.T) (*Service, *sqlstore.Store, *recordingNotifier) {
	store := sqltest.NewStore(t)
	notifier := &recordingNotifier{}
	return NewService(store, notifier, slog.New(slog.NewTextHandler(io.Discard, nil))), store, notifier
}

// submit records a pending engagement and its earning the way the submission guard does.
func submit(t *testing.T, store *sqlstore.Store, c *models.Campaign, userID string, createdAt time.Time) *models.Engagement {
	t.Helper()
	e := &models.Engagement{
		ID: uuid.NewString(), CampaignID: c.ID, CampaignOwnerID: c.OwnerID, UserID: userID,
		ActionType: c.ActionType, ProofUsername: userID, IPAddress: "10.0.0.1", Fingerprint: uuid.NewString(),
		Status: models.EngagementPending, EarnedAmount: c.CostPerAction, CreatedAt: createdAt,
	}
	earning := &models.Transaction{
		ID: models.EarningID(e.ID), UserID: userID, Type: models.TransactionEngagementEarning, Amount: c.CostPerAction,
		Currency: "NGN", Status: models.TransactionPending, CampaignID: c.ID, EngagementID: e.ID,
		PaymentMethod: "wallet", CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	_, err := store.SubmitEngagement(context.Background(), e, earning)
	require.NoError(t, err)
	return e
}

func TestReview(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Approval Pays Earner", func(t *testing.T) {
		svc, store, notifier := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 1, 5)
		e := submit(t, store, campaign, "earner", now)

		reviewed, err := svc.Review(ctx, "creator", []string{e.ID}, models.EngagementApproved, "")

		require.NoError(t, err)
		require.Len(t, reviewed, 1)
		assert.Equal(t, models.EngagementApproved, reviewed[0].Status)
		assert.NotNil(t, reviewed[0].ReviewedAt)

		updated, err := store.GetCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CampaignCompleted, updated.Status)
		assert.Equal(t, int64(1), updated.ApprovedClicks)

		earning, err := store.FindEarningByEngagement(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, earning.Status)

		earner, err := store.GetUser(ctx, "earner")
		require.NoError(t, err)
		assert.Equal(t, int64(5), earner.Balance)
		assert.Equal(t, int64(5), earner.TotalEarned)
		assert.Equal(t, []string{"earner"}, notifier.users)
		sqltest.Reconcile(t, store, "earner")
		sqltest.Reconcile(t, store, "creator")
	})

	t.Run("Rejection Cancels Earning", func(t *testing.T) {
		svc, store, notifier := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 10, 5)
		e := submit(t, store, campaign, "earner", now)

		reviewed, err := svc.Review(ctx, "creator", []string{e.ID}, models.EngagementRejected, " no proof ")

		require.NoError(t, err)
		assert.Equal(t, "no proof", reviewed[0].RejectionReason)
		earning, err := store.FindEarningByEngagement(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCancelled, earning.Status)
		assert.Equal(t, int64(0), sqltest.Balance(t, store, "earner"))
		assert.Empty(t, notifier.users)
		sqltest.Reconcile(t, store, "earner")
	})

	t.Run("Batch With Reviewed Engagement", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 10, 5)
		first := submit(t, store, campaign, "earner", now)
		second := submit(t, store, campaign, "earner", now)
		third := submit(t, store, campaign, "earner", now)
		_, err := svc.Review(ctx, "creator", []string{first.ID}, models.EngagementApproved, "")
		require.NoError(t, err)

		_, err = svc.Review(ctx, "creator", []string{second.ID, first.ID, third.ID}, models.EngagementApproved, "")

		assert.ErrorIs(t, err, apperrors.ErrAlreadyReviewed)
		for _, id := range []string{second.ID, third.ID} {
			e, err := store.GetEngagement(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, models.EngagementPending, e.Status)
		}
		assert.Equal(t, int64(5), sqltest.Balance(t, store, "earner"))
		sqltest.Reconcile(t, store, "earner")
	})

	t.Run("Approval Keeps A Single Earning", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 10, 5)
		e := submit(t, store, campaign, "earner", now)

		_, err := svc.Review(ctx, "creator", []string{e.ID}, models.EngagementApproved, "")
		require.NoError(t, err)

		earnings, err := store.ListTransactionsByUser(ctx, "earner", models.TransactionEngagementEarning)
		require.NoError(t, err)
		require.Len(t, earnings, 1)
		assert.Equal(t, models.EarningID(e.ID), earnings[0].ID)
		assert.Equal(t, models.TransactionCompleted, earnings[0].Status)
		assert.Equal(t, int64(5), sqltest.Balance(t, store, "earner"))
		sqltest.Reconcile(t, store, "earner")
	})

		t.Run("Not The Campaign Owner", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 10, 5)
		e := submit(t, store, campaign, "earner", now)

		_, err := svc.Review(ctx, "intruder", []string{e.ID}, models.EngagementApproved, "")

		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Missing Engagement", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Review(ctx, "creator", []string{"nope"}, models.EngagementApproved, "")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Invalid Request", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Review(ctx, "creator", []string{"a"}, models.EngagementPending, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = svc.Review(ctx, "creator", []string{" ", ""}, models.EngagementApproved, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		ids := make([]string, 21)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
		_, err = svc.Review(ctx, "creator", ids, models.EngagementApproved, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestAutoApprove(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	svc, store, _ := newTestService(t)
	sqltest.SeedUser(t, store, "creator", 1000)
	sqltest.SeedUser(t, store, "earner", 0)
	campaign := sqltest.SeedCampaign(t, store, "creator", 50, 5)

	var stale []*models.Engagement
	for range 22 {
		stale = append(stale, submit(t, store, campaign, "earner", now.Add(-4*24*time.Hour)))
	}
	fresh := submit(t, store, campaign, "earner", now.Add(-time.Hour))

	count, err := svc.AutoApprove(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 22, count)
	e, err := store.GetEngagement(ctx, stale[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.EngagementApproved, e.Status)
	assert.Equal(t, AutoApprovalNote, e.ReviewNote)
	e, err = store.GetEngagement(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EngagementPending, e.Status)
	assert.Equal(t, int64(110), sqltest.Balance(t, store, "earner"))
	sqltest.Reconcile(t, store, "earner")

	count, err = svc.AutoApprove(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, count)
}
