package sqlstore

import (
	"context"
	"fmt"

	"github.com/Dxtobi/xplus/pkg/models"
)

// ListLedgerEntries retrieves an account's most recent ledger entries.
func (s *Store) ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error) {
	q := s.DB.WithContext(ctx).Where("account_id = ?", accountID).Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(int(limit))
	}
	var entries []models.LedgerEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}
