package gateway

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success"}`)
	valid := hex.EncodeToString(Sign("sk_test", body))

	assert.True(t, VerifySignature("sk_test", body, valid))
	assert.False(t, VerifySignature("sk_other", body, valid))
	assert.False(t, VerifySignature("sk_test", []byte(`{"event":"charge.failed"}`), valid))
	assert.False(t, VerifySignature("sk_test", body, ""))
	assert.False(t, VerifySignature("sk_test", body, "not-hex"))
}

func TestInitializeCharge(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transaction/initialize", r.URL.Path)
			assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(110000), body["amount"])
			assert.Equal(t, "tx-1", body["reference"])

			w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout/abc","reference":"tx-1"}}`))
		}))
		defer server.Close()

		client := NewPaystack(server.URL, "sk_test", server.Client())
		charge, err := client.InitializeCharge(context.Background(), ChargeRequest{Amount: 1100, Email: "a@example.com", Reference: "tx-1"})

		require.NoError(t, err)
		assert.Equal(t, "https://checkout/abc", charge.AuthorizationURL)
	})

	t.Run("Rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status":false,"message":"Invalid email"}`))
		}))
		defer server.Close()

		client := NewPaystack(server.URL, "sk_test", server.Client())
		_, err := client.InitializeCharge(context.Background(), ChargeRequest{Amount: 1100, Reference: "tx-1"})

		assert.True(t, errors.Is(err, ErrRejected))
	})
}

func TestCreatePayoutRecipient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transferrecipient", r.URL.Path)
		w.Write([]byte(`{"status":true,"data":{"recipient_code":"RCP_1","details":{"account_number":"0123456789","bank_name":"Test Bank"}}}`))
	}))
	defer server.Close()

	client := NewPaystack(server.URL, "sk_test", server.Client())
	recipient, err := client.CreatePayoutRecipient(context.Background(), RecipientRequest{Name: "Ada", BankCode: "058", AccountNumber: "0123456789"})

	require.NoError(t, err)
	assert.Equal(t, "RCP_1", recipient.RecipientCode)
	assert.Equal(t, "Test Bank", recipient.BankName)
}

func TestInitiateTransfer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/transfer":
			w.Write([]byte(`{"status":true,"data":{"transfer_code":"TRF_1","reference":"w-1","status":"pending"}}`))
		case "/transfer/verify/w-1":
			w.Write([]byte(`{"status":true,"data":{"transfer_code":"TRF_1","reference":"w-1","status":"success"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewPaystack(server.URL, "sk_test", server.Client())

	transfer, err := client.InitiateTransfer(context.Background(), TransferRequest{Amount: 6000, RecipientCode: "RCP_1", Reference: "w-1"})
	require.NoError(t, err)
	assert.Equal(t, "TRF_1", transfer.TransferCode)
	assert.False(t, transfer.Final())

	verified, err := client.VerifyTransfer(context.Background(), "w-1")
	require.NoError(t, err)
	assert.True(t, verified.Final())
}

func TestTransferErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRejected bool
		wantNotFound bool
	}{
		{"Client Error", http.StatusBadRequest, `{"status":false,"message":"Insufficient balance"}`, true, false},
		{"Status False", http.StatusOK, `{"status":false,"message":"Recipient is invalid"}`, true, false},
		{"Not Found", http.StatusNotFound, `{"status":false,"message":"Transfer not found"}`, true, true},
		{"Server Error", http.StatusInternalServerError, `{"status":false,"message":"An error occurred"}`, false, false},
		{"Proxy Error", http.StatusBadGateway, `<html>502 Bad Gateway</html>`, false, false},
		{"Unreadable Body", http.StatusOK, `<html>maintenance</html>`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()
			client := NewPaystack(server.URL, "sk_test", server.Client())

			_, err := client.InitiateTransfer(context.Background(), TransferRequest{Amount: 6000, RecipientCode: "RCP_1", Reference: "w-1"})
			require.Error(t, err)
			assert.Equal(t, tt.wantRejected, errors.Is(err, ErrRejected))

			_, err = client.VerifyTransfer(context.Background(), "w-1")
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.Is(err, ErrTransferNotFound))
			if !tt.wantNotFound {
				assert.Equal(t, tt.wantRejected, errors.Is(err, ErrRejected))
			}
		})
	}
}
