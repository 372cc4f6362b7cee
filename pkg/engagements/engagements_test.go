package engagements

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/geoip/mocks"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/paging"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore/sqltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *sqlstore.Store, *mocks.Locator) {
	store := sqltest.NewStore(t)
	locator := mocks.NewLocator(t)
	return NewService(store, locator, slog.New(slog.NewTextHandler(io.Discard, nil))), store, locator
}

func proof(username string) Proof {
	return Proof{ProofUsername: username, IPAddress: "10.0.0.7", UserAgent: "test-agent"}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("c1", "u1", "10.0.0.7", "@Ada")
	b := Fingerprint("c1", "u1", "10.0.0.7", "ada")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint("c1", "u1", "10.0.0.8", "ada"))
	assert.NotEqual(t, a, Fingerprint("c2", "u1", "10.0.0.7", "ada"))
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("Completes Campaign At Target", func(t *testing.T) {
		svc, store, locator := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 1, 5)
		locator.On("Lookup", mock.Anything, "10.0.0.7").Return(&models.Location{Country: "Nigeria", City: "Lagos"}, nil)

		engagement, err := svc.Submit(ctx, campaign.ID, "earner", proof("@ada"))

		require.NoError(t, err)
		assert.Equal(t, models.EngagementPending, engagement.Status)
		assert.Equal(t, int64(5), engagement.EarnedAmount)
		assert.Equal(t, "Lagos", engagement.Location.City)
		assert.Equal(t, "creator", engagement.CampaignOwnerID)

		updated, err := store.GetCampaign(ctx, campaign.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), updated.CurrentClicks)
		assert.Equal(t, models.CampaignCompleted, updated.Status)

		earning, err := store.FindEarningByEngagement(ctx, engagement.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EarningID(engagement.ID), earning.ID)
		assert.Equal(t, models.TransactionPending, earning.Status)
		assert.False(t, earning.BalanceApplied)
		assert.Equal(t, int64(0), sqltest.Balance(t, store, "earner"))
		sqltest.Reconcile(t, store, "earner")
		sqltest.Reconcile(t, store, "creator")
	})

	t.Run("Duplicate Submission", func(t *testing.T) {
		svc, store, locator := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 1, 5)
		locator.On("Lookup", mock.Anything, mock.Anything).Return(nil, errors.New("lookup timed out"))

		_, err := svc.Submit(ctx, campaign.ID, "earner", proof("ada"))
		require.NoError(t, err)

		_, err = svc.Submit(ctx, campaign.ID, "earner", proof("@ADA"))

		assert.ErrorIs(t, err, apperrors.ErrDuplicateSubmission)
		history, err := store.ListEngagementsByUser(ctx, "earner", "")
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("Campaign Full", func(t *testing.T) {
		svc, store, locator := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		sqltest.SeedUser(t, store, "earner", 0)
		sqltest.SeedUser(t, store, "other", 0)
		campaign := sqltest.SeedCampaign(t, store, "creator", 1, 5)
		locator.On("Lookup", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.Submit(ctx, campaign.ID, "earner", proof("ada"))
		require.NoError(t, err)

		_, err = svc.Submit(ctx, campaign.ID, "other", proof("grace"))

		assert.ErrorIs(t, err, apperrors.ErrCampaignUnavailable)
	})

	t.Run("Own Campaign", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		sqltest.SeedUser(t, store, "creator", 100)
		campaign := sqltest.SeedCampaign(t, store, "creator", 10, 5)

		_, err := svc.Submit(ctx, campaign.ID, "creator", proof("ada"))

		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Missing Campaign", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Submit(ctx, "nope", "earner", proof("ada"))

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Missing Username", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.Submit(ctx, "c1", "earner", proof(" @ "))

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	svc, store, locator := newTestService(t)
	sqltest.SeedUser(t, store, "creator", 1000)
	sqltest.SeedUser(t, store, "earner", 0)
	first := sqltest.SeedCampaign(t, store, "creator", 10, 5)
	second := sqltest.SeedCampaign(t, store, "creator", 10, 5)
	locator.On("Lookup", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := svc.Submit(ctx, first.ID, "earner", proof("ada"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, second.ID, "earner", proof("ada"))
	require.NoError(t, err)

	queue, err := svc.ListForCreator(ctx, "creator", paging.Request{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, queue.Total)
	assert.Equal(t, 2, queue.TotalPages)
	require.Len(t, queue.Items, 1)
	assert.Equal(t, "Seeded campaign", queue.Items[0].CampaignTitle)
	assert.Equal(t, "https://x.com/ada", queue.Items[0].ProofLink)

	history, err := svc.ListForEarner(ctx, "earner", models.EngagementPending, paging.Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, history.Total)

	approved, err := svc.ListForEarner(ctx, "earner", models.EngagementApproved, paging.Request{})
	require.NoError(t, err)
	assert.Empty(t, approved.Items)

	_, err = svc.ListForEarner(ctx, "earner", "disputed", paging.Request{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
