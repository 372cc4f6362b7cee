package storage

import (
	"context"

	"github.com/Dxtobi/xplus/pkg/models"
)

// LedgerReader defines the interface for reading ledger data.
type LedgerReader interface {
	// ListLedgerEntries retrieves an account's most recent ledger entries. A
	// limit of zero or less returns every entry.
	ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error)
}
