package ledger

import (
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Store  storage.LedgerReader
	Logger *slog.Logger
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(store storage.LedgerReader, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{Store: store, Logger: logger}
}

// ListLedgerEntries returns the caller's most recent balance effects.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request, params api.ListLedgerEntriesParams) {
	limit := int32(defaultLimit)
	if params.Limit != nil && *params.Limit > 0 {
		limit = int32(min(*params.Limit, maxLimit))
	}

	domainEntries, err := h.Store.ListLedgerEntries(r.Context(), middleware.UserID(r.Context()), limit)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	apiEntries := make([]*api.LedgerEntry, len(domainEntries))
	for i, entry := range domainEntries {
		apiEntries[i] = mapping.ToApiLedgerEntry(&entry)
	}

	respond.JSON(w, http.StatusOK, apiEntries)
}
