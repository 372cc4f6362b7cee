package transactions_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/handlers/transactions"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore/sqltest"
	"github.com/Dxtobi/xplus/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func as(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: userID}))
}

func TestTransactions(t *testing.T) {
	store := sqltest.NewStore(t)
	sqltest.SeedUser(t, store, "creator", 1000)
	sqltest.SeedUser(t, store, "other", 0)
	sqltest.SeedCampaign(t, store, "creator", 100, 5)
	h := transactions.NewTransactionsHandler(users.NewService(store), slog.New(slog.NewTextHandler(io.Discard, nil)))

	var all []api.Transaction
	t.Run("List", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ListTransactions(rr, as(httptest.NewRequest(http.MethodGet, "/transactions", nil), "creator"), api.ListTransactionsParams{})

		require.Equal(t, http.StatusOK, rr.Code)
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
		assert.Len(t, all, 2)
	})

	t.Run("Filter By Type", func(t *testing.T) {
		txType := "campaign_payment"
		rr := httptest.NewRecorder()
		h.ListTransactions(rr, as(httptest.NewRequest(http.MethodGet, "/transactions?type=campaign_payment", nil), "creator"), api.ListTransactionsParams{Type: &txType})

		require.Equal(t, http.StatusOK, rr.Code)
		var payments []api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payments))
		require.Len(t, payments, 1)
		assert.Equal(t, int64(500), payments[0].Amount)
	})

	t.Run("Unknown Type", func(t *testing.T) {
		txType := "bonus"
		rr := httptest.NewRecorder()
		h.ListTransactions(rr, as(httptest.NewRequest(http.MethodGet, "/transactions?type=bonus", nil), "creator"), api.ListTransactionsParams{Type: &txType})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Get Own", func(t *testing.T) {
		require.NotEmpty(t, all)
		rr := httptest.NewRecorder()
		h.GetTransactionById(rr, as(httptest.NewRequest(http.MethodGet, "/transactions/"+all[0].Id, nil), "creator"), all[0].Id)

		require.Equal(t, http.StatusOK, rr.Code)
		var tx api.Transaction
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tx))
		assert.Equal(t, all[0].Id, tx.Id)
	})

	t.Run("Get Someone Else's", func(t *testing.T) {
		require.NotEmpty(t, all)
		rr := httptest.NewRecorder()
		h.GetTransactionById(rr, as(httptest.NewRequest(http.MethodGet, "/transactions/"+all[0].Id, nil), "other"), all[0].Id)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
