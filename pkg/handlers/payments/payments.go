package payments

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/payments"
)

// SignatureHeader carries the gateway's HMAC of the webhook body.
const SignatureHeader = "x-paystack-signature"

const maxWebhookBody = 1 << 20

// PaymentService opens deposits and settles gateway webhooks.
type PaymentService interface {
	InitializeDeposit(ctx context.Context, userID string, baseAmount int64) (*payments.Deposit, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// PaymentsHandler holds the dependencies for payment-related handlers.
type PaymentsHandler struct {
	Service PaymentService
	Logger  *slog.Logger
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(service PaymentService, logger *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{Service: service, Logger: logger}
}

// InitializeDeposit starts a wallet deposit and returns the checkout URL.
func (h *PaymentsHandler) InitializeDeposit(w http.ResponseWriter, r *http.Request) {
	var req api.DepositRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	deposit, err := h.Service.InitializeDeposit(r.Context(), middleware.UserID(r.Context()), req.Amount)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, mapping.ToApiDeposit(deposit))
}

// HandlePaymentWebhook receives gateway events. It is not authenticated by
// token: the body signature is verified instead, so the raw bytes are passed on untouched.
func (h *PaymentsHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respond.Error(w, h.Logger, apperrors.Validation("unreadable webhook body"))
		return
	}

	if err := h.Service.HandleWebhook(r.Context(), body, r.Header.Get(SignatureHeader)); err != nil {
		if apperrors.Status(err) == http.StatusUnauthorized {
			h.Logger.Warn("rejected webhook", "remote_addr", r.RemoteAddr)
		}
		respond.Error(w, h.Logger, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
