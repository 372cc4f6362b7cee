package transactions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
)

// TransactionReader reads the caller's transaction history.
type TransactionReader interface {
	ListTransactions(ctx context.Context, userID string, txType models.TransactionType) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error)
}

// TransactionsHandler holds the dependencies for transaction-related handlers.
type TransactionsHandler struct {
	Reader TransactionReader
	Logger *slog.Logger
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(reader TransactionReader, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{Reader: reader, Logger: logger}
}

// ListTransactions returns the caller's transactions, newest first.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request, params api.ListTransactionsParams) {
	var txType models.TransactionType
	if params.Type != nil {
		txType = models.TransactionType(*params.Type)
	}

	domainTxs, err := h.Reader.ListTransactions(r.Context(), middleware.UserID(r.Context()), txType)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	apiTxs := make([]*api.Transaction, len(domainTxs))
	for i, tx := range domainTxs {
		apiTxs[i] = mapping.ToApiTransaction(&tx)
	}

	respond.JSON(w, http.StatusOK, apiTxs)
}

// GetTransactionById returns one of the caller's transactions.
func (h *TransactionsHandler) GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	domainTx, err := h.Reader.GetTransaction(r.Context(), middleware.UserID(r.Context()), transactionId)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiTransaction(domainTx))
}
