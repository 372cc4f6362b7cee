package dynamodb

import (
	"context"
	"fmt"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
)

// GetTransaction retrieves a transaction from DynamoDB by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.getItem(ctx, s.TransactionsTableName, txID, "transaction", &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindEarningByEngagement returns the earning transaction of an engagement
// with a strongly consistent read of its derived key.
func (s *Store) FindEarningByEngagement(ctx context.Context, engagementID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.getItem(ctx, s.TransactionsTableName, models.EarningID(engagementID), "earning", &tx); err != nil {
		return nil, err
	}
	if tx.Type != models.TransactionEngagementEarning || tx.EngagementID != engagementID {
		return nil, fmt.Errorf("earning for engagement %s: %w", engagementID, storage.ErrNotFound)
	}
	return &tx, nil
}
