package payouts

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/payouts"
)

// PayoutService links payout accounts and pays earnings out.
type PayoutService interface {
	AddRecipient(ctx context.Context, userID, bankCode, accountNumber string) (*models.PayoutRecipient, error)
	Eligibility(ctx context.Context, userID string) (*payouts.Eligibility, error)
	Withdraw(ctx context.Context, userID string, amount int64) (*models.Transaction, error)
}

// PayoutsHandler holds the dependencies for payout-related handlers.
type PayoutsHandler struct {
	Service PayoutService
	Logger  *slog.Logger
}

// NewPayoutsHandler creates a new PayoutsHandler.
func NewPayoutsHandler(service PayoutService, logger *slog.Logger) *PayoutsHandler {
	return &PayoutsHandler{Service: service, Logger: logger}
}

// AddPayoutRecipient links the caller's bank account.
func (h *PayoutsHandler) AddPayoutRecipient(w http.ResponseWriter, r *http.Request) {
	var req api.RecipientRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	recipient, err := h.Service.AddRecipient(r.Context(), middleware.UserID(r.Context()), req.BankCode, req.AccountNumber)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, mapping.ToApiPayoutAccount(recipient))
}

// GetPayoutEligibility reports whether the caller may withdraw.
func (h *PayoutsHandler) GetPayoutEligibility(w http.ResponseWriter, r *http.Request) {
	eligibility, err := h.Service.Eligibility(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiEligibility(eligibility))
}

// Withdraw pays the requested amount out. A transfer the gateway has not
// settled yet is reported as 202 Accepted.
func (h *PayoutsHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req api.WithdrawRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	tx, err := h.Service.Withdraw(r.Context(), middleware.UserID(r.Context()), req.Amount)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	status := http.StatusCreated
	if tx.Status == models.TransactionPending {
		status = http.StatusAccepted
	}
	respond.JSON(w, status, mapping.ToApiTransaction(tx))
}
