package payments

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/gateway"
	gatewaymocks "github.com/Dxtobi/xplus/pkg/gateway/mocks"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/payouts"
	schedulermocks "github.com/Dxtobi/xplus/pkg/scheduler/mocks"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore/sqltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(t *testing.T, opts ...Option) (*Service, *sqlstore.Store, *gatewaymocks.Gateway) {
	store := sqltest.NewStore(t)
	gw := gatewaymocks.NewGateway(t)
	transfers := payouts.NewService(store, gw, nil, nil, discard, 0)
	return NewService(store, gw, transfers, discard, opts...), store, gw
}

func webhook(t *testing.T, event string, data models.GatewayEventData) []byte {
	t.Helper()
	body, err := json.Marshal(models.GatewayEvent{Event: event, Data: data})
	require.NoError(t, err)
	return body
}

// initDeposit opens a deposit of base for userID against a gateway that accepts the charge.
func initDeposit(t *testing.T, svc *Service, gw *gatewaymocks.Gateway, userID string, base int64) *Deposit {
	t.Helper()
	gw.On("InitializeCharge", mock.Anything, mock.MatchedBy(func(req gateway.ChargeRequest) bool {
		return req.Amount == base+Fee(base) && req.Email == userID+"@example.com"
	})).Return(&gateway.Charge{AuthorizationURL: "https://checkout.example/abc", Reference: "ref"}, nil).Once()

	deposit, err := svc.InitializeDeposit(context.Background(), userID, base)
	require.NoError(t, err)
	return deposit
}

func TestFee(t *testing.T) {
	assert.Equal(t, int64(100), Fee(1000))
	assert.Equal(t, int64(0), Fee(9))
	assert.Equal(t, int64(12), Fee(125))
}

func TestInitializeDeposit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, store, gw := newTestService(t, WithCallbackURL("https://app.example/wallet"))
		sqltest.SeedUser(t, store, "payer", 0)

		deposit := initDeposit(t, svc, gw, "payer", 1000)

		assert.Equal(t, "https://checkout.example/abc", deposit.AuthorizationURL)
		assert.Equal(t, int64(1100), deposit.ChargedAmount)
		tx, err := store.GetTransaction(ctx, deposit.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionPending, tx.Status)
		assert.Equal(t, int64(1000), tx.Amount)
		require.NotNil(t, tx.Details.Deposit)
		assert.Equal(t, int64(100), tx.Details.Deposit.Fee)
		assert.Equal(t, int64(0), sqltest.Balance(t, store, "payer"))
	})

	t.Run("Gateway Failure", func(t *testing.T) {
		svc, store, gw := newTestService(t)
		sqltest.SeedUser(t, store, "payer", 0)
		gw.On("InitializeCharge", mock.Anything, mock.Anything).Return(nil, gateway.ErrRejected)

		_, err := svc.InitializeDeposit(ctx, "payer", 1000)

		assert.ErrorIs(t, err, apperrors.ErrGatewayFailure)
		txs, err := store.ListTransactionsByUser(ctx, "payer", models.TransactionDeposit)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, models.TransactionFailed, txs[0].Status)
	})

	t.Run("Invalid Amount", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		_, err := svc.InitializeDeposit(ctx, "payer", -5)

		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestHandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("Bad Signature", func(t *testing.T) {
		svc, _, gw := newTestService(t)
		body := []byte(`{"event":"charge.success"}`)
		gw.On("VerifyWebhookSignature", body, "forged").Return(false)

		err := svc.HandleWebhook(ctx, body, "forged")

		assert.ErrorIs(t, err, apperrors.ErrInvalidSignature)
	})

	t.Run("Charge Success Is Idempotent", func(t *testing.T) {
		svc, store, gw := newTestService(t)
		sqltest.SeedUser(t, store, "payer", 0)
		deposit := initDeposit(t, svc, gw, "payer", 1000)
		body := webhook(t, models.EventChargeSuccess, models.GatewayEventData{Reference: deposit.TransactionID, Amount: 110000})
		gw.On("VerifyWebhookSignature", body, "sig").Return(true)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))
		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		assert.Equal(t, int64(1000), sqltest.Balance(t, store, "payer"))
		tx, err := store.GetTransaction(ctx, deposit.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, tx.Status)
		sqltest.Reconcile(t, store, "payer")
	})

	t.Run("Amount Mismatch", func(t *testing.T) {
		svc, store, gw := newTestService(t)
		sqltest.SeedUser(t, store, "payer", 0)
		deposit := initDeposit(t, svc, gw, "payer", 1000)
		body := webhook(t, models.EventChargeSuccess, models.GatewayEventData{Reference: deposit.TransactionID, Amount: 100000})
		gw.On("VerifyWebhookSignature", body, "sig").Return(true)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		tx, err := store.GetTransaction(ctx, deposit.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionFailed, tx.Status)
		assert.Equal(t, int64(0), sqltest.Balance(t, store, "payer"))
		sqltest.Reconcile(t, store, "payer")
	})

	t.Run("Charge Failed", func(t *testing.T) {
		svc, store, gw := newTestService(t)
		sqltest.SeedUser(t, store, "payer", 0)
		deposit := initDeposit(t, svc, gw, "payer", 1000)
		body := webhook(t, models.EventChargeFailed, models.GatewayEventData{Reference: deposit.TransactionID})
		gw.On("VerifyWebhookSignature", body, "sig").Return(true)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		tx, err := store.GetTransaction(ctx, deposit.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionFailed, tx.Status)
	})

	t.Run("Unknown Reference", func(t *testing.T) {
		svc, _, gw := newTestService(t)
		charge := webhook(t, models.EventChargeSuccess, models.GatewayEventData{Reference: "nope", Amount: 100})
		transfer := webhook(t, models.EventTransferSuccess, models.GatewayEventData{Reference: "nope"})
		gw.On("VerifyWebhookSignature", mock.Anything, "sig").Return(true)

		assert.NoError(t, svc.HandleWebhook(ctx, charge, "sig"))
		assert.NoError(t, svc.HandleWebhook(ctx, transfer, "sig"))
	})

	t.Run("Transfer Success", func(t *testing.T) {
		svc, store, gw := newTestService(t)
		sqltest.SeedUser(t, store, "earner", 6000)
		require.NoError(t, store.SetPayoutRecipient(ctx, "earner", models.PayoutRecipient{RecipientCode: "RCP_1", BankName: "Test Bank"}))
		gw.On("InitiateTransfer", mock.Anything, mock.Anything).
			Return(&gateway.Transfer{TransferCode: "TRF_1", Status: gateway.TransferPending}, nil)
		withdrawal, err := payouts.NewService(store, gw, nil, nil, discard, 0).Withdraw(ctx, "earner", 5000)
		require.NoError(t, err)

		body := webhook(t, models.EventTransferSuccess, models.GatewayEventData{Reference: withdrawal.ID, TransferCode: "TRF_1"})
		gw.On("VerifyWebhookSignature", body, "sig").Return(true)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		tx, err := store.GetTransaction(ctx, withdrawal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, tx.Status)
		assert.Equal(t, int64(1000), sqltest.Balance(t, store, "earner"))
		sqltest.Reconcile(t, store, "earner")
	})

	t.Run("Scheduled", func(t *testing.T) {
		sched := schedulermocks.NewScheduler(t)
		svc, store, gw := newTestService(t, WithScheduler(sched))
		sqltest.SeedUser(t, store, "payer", 0)
		deposit := initDeposit(t, svc, gw, "payer", 1000)
		body := webhook(t, models.EventChargeSuccess, models.GatewayEventData{Reference: deposit.TransactionID, Amount: 110000})
		gw.On("VerifyWebhookSignature", body, "sig").Return(true)
		sched.On("ScheduleEvent", mock.Anything, mock.MatchedBy(func(e *models.GatewayEvent) bool {
			return e.Event == models.EventChargeSuccess && e.Data.Reference == deposit.TransactionID
		})).Return(nil)

		require.NoError(t, svc.HandleWebhook(ctx, body, "sig"))

		assert.Equal(t, int64(0), sqltest.Balance(t, store, "payer"))
	})
}
