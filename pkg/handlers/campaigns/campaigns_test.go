package campaigns_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/campaigns"
	handler "github.com/Dxtobi/xplus/pkg/handlers/campaigns"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore/sqltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*handler.CampaignsHandler, *sqlstore.Store) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := sqltest.NewStore(t)
	return handler.NewCampaignsHandler(campaigns.NewService(store, logger), logger), store
}

func as(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: userID}))
}

func TestCreateCampaign(t *testing.T) {
	body, _ := json.Marshal(api.NewCampaign{
		Title:        "Like my post",
		Link:         "https://x.com/me/status/1",
		ActionType:   "likes",
		TargetAmount: 100,
	})

	t.Run("Success", func(t *testing.T) {
		// 1. Setup
		h, store := setup(t)
		sqltest.SeedUser(t, store, "owner", 1000)
		req := as(httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(body)), "owner")
		rr := httptest.NewRecorder()

		// 2. Execute
		h.CreateCampaign(rr, req)

		// 3. Assert
		require.Equal(t, http.StatusCreated, rr.Code)
		var created api.Campaign
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
		assert.Equal(t, "owner", created.OwnerId)
		assert.Equal(t, "Twitter/X", created.Platform)
		assert.Equal(t, int64(500), created.Cost)
		assert.Equal(t, "active", created.Status)
		assert.Equal(t, int64(500), sqltest.Balance(t, store, "owner"))
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		h, store := setup(t)
		sqltest.SeedUser(t, store, "owner", 100)
		req := as(httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader(body)), "owner")
		rr := httptest.NewRecorder()

		h.CreateCampaign(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"reason":"insufficient_funds"`)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		h, store := setup(t)
		sqltest.SeedUser(t, store, "owner", 1000)
		req := as(httptest.NewRequest(http.MethodPost, "/campaigns", bytes.NewReader([]byte("{"))), "owner")
		rr := httptest.NewRecorder()

		h.CreateCampaign(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"reason":"invalid_input"`)
	})
}

func TestGetCampaign(t *testing.T) {
	h, store := setup(t)
	sqltest.SeedUser(t, store, "owner", 1000)
	c := sqltest.SeedCampaign(t, store, "owner", 100, 5)

	t.Run("Success", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetCampaign(rr, as(httptest.NewRequest(http.MethodGet, "/campaigns/"+c.ID, nil), "earner"), c.ID)

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Campaign
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, c.ID, got.Id)
	})

	t.Run("Not Found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetCampaign(rr, as(httptest.NewRequest(http.MethodGet, "/campaigns/missing", nil), "earner"), "missing")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateCampaign(t *testing.T) {
	h, store := setup(t)
	sqltest.SeedUser(t, store, "owner", 1000)
	c := sqltest.SeedCampaign(t, store, "owner", 100, 5)
	body := []byte(`{"status":"paused"}`)

	t.Run("Not Owner", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.UpdateCampaign(rr, as(httptest.NewRequest(http.MethodPatch, "/campaigns/"+c.ID, bytes.NewReader(body)), "intruder"), c.ID)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("Pause", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.UpdateCampaign(rr, as(httptest.NewRequest(http.MethodPatch, "/campaigns/"+c.ID, bytes.NewReader(body)), "owner"), c.ID)

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Campaign
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "paused", got.Status)
	})
}

func TestCancelCampaign(t *testing.T) {
	h, store := setup(t)
	sqltest.SeedUser(t, store, "owner", 1000)
	c := sqltest.SeedCampaign(t, store, "owner", 100, 5)
	before := sqltest.Balance(t, store, "owner")

	rr := httptest.NewRecorder()
	h.CancelCampaign(rr, as(httptest.NewRequest(http.MethodDelete, "/campaigns/"+c.ID, nil), "owner"), c.ID)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, before+c.Cost, sqltest.Balance(t, store, "owner"))
	sqltest.Reconcile(t, store, "owner")
}

func TestListCampaigns(t *testing.T) {
	h, store := setup(t)
	sqltest.SeedUser(t, store, "owner", 5000)
	sqltest.SeedCampaign(t, store, "owner", 100, 5)
	sqltest.SeedCampaign(t, store, "owner", 100, 5)

	t.Run("Own", func(t *testing.T) {
		limit := 1
		rr := httptest.NewRecorder()
		h.ListCampaigns(rr, as(httptest.NewRequest(http.MethodGet, "/campaigns?limit=1", nil), "owner"), api.ListCampaignsParams{Limit: &limit})

		require.Equal(t, http.StatusOK, rr.Code)
		var page api.Page[api.Campaign]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Items, 1)
	})

	t.Run("Available Excludes Own", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListAvailableCampaigns(rr, as(httptest.NewRequest(http.MethodGet, "/campaigns/available", nil), "owner"), api.ListAvailableCampaignsParams{})

		require.Equal(t, http.StatusOK, rr.Code)
		var page api.Page[api.Campaign]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, 0, page.Total)
	})

	t.Run("Available To Earner", func(t *testing.T) {
		platform := "Twitter/X"
		rr := httptest.NewRecorder()
		h.ListAvailableCampaigns(rr, as(httptest.NewRequest(http.MethodGet, "/campaigns/available", nil), "earner"), api.ListAvailableCampaignsParams{Platform: &platform})

		require.Equal(t, http.StatusOK, rr.Code)
		var page api.Page[api.Campaign]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, 2, page.Total)
	})
}
