package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"gorm.io/gorm"
)

// CreateTransaction stores a new transaction without any balance effect.
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.DB.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by its ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	return getTransaction(s.DB.WithContext(ctx), txID)
}

func getTransaction(db *gorm.DB, txID string) (*models.Transaction, error) {
	var t models.Transaction
	if err := db.First(&t, "id = ?", txID).Error; err != nil {
		return nil, notFound(err, "transaction %s", txID)
	}
	return &t, nil
}

// FindEarningByEngagement returns the earning transaction of an engagement.
func (s *Store) FindEarningByEngagement(ctx context.Context, engagementID string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.DB.WithContext(ctx).
		Where("id = ? AND engagement_id = ? AND type = ?", models.EarningID(engagementID), engagementID, models.TransactionEngagementEarning).
		First(&t).Error
	if err != nil {
		return nil, notFound(err, "earning for engagement %s", engagementID)
	}
	return &t, nil
}

// ListTransactionsByUser retrieves a user's transactions, newest first.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string, txType models.TransactionType) ([]models.Transaction, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	var txs []models.Transaction
	if err := q.Order("created_at desc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// ListStalePendingWithdrawals retrieves withdrawals still pending since before cutoff.
func (s *Store) ListStalePendingWithdrawals(ctx context.Context, cutoff time.Time) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.DB.WithContext(ctx).
		Where("type = ? AND status = ? AND created_at < ?", models.TransactionWithdrawal, models.TransactionPending, cutoff).
		Order("created_at asc").Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale withdrawals: %w", err)
	}
	return txs, nil
}

// ListTransactionsNeedingReconciliation retrieves flagged transactions.
func (s *Store) ListTransactionsNeedingReconciliation(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.DB.WithContext(ctx).Where("needs_reconciliation = ?", true).
		Order("created_at asc").Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list flagged transactions: %w", err)
	}
	return txs, nil
}

// SetExternalReference records the gateway's reference for a transaction.
func (s *Store) SetExternalReference(ctx context.Context, txID, reference string) error {
	res := s.DB.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", txID).
		Updates(map[string]any{"external_reference": reference, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to set external reference: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	return nil
}

// CompleteTransaction moves a pending transaction to completed, applying its
// balance effect if that has not happened yet.
func (s *Store) CompleteTransaction(ctx context.Context, txID, externalReference string) (bool, error) {
	completed := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Get the current state of the transaction.
		t, err := getTransaction(tx, txID)
		if err != nil {
			return err
		}
		switch t.Status {
		case models.TransactionCompleted:
			return nil
		case models.TransactionFailed, models.TransactionCancelled:
			return fmt.Errorf("transaction %s is %s: %w", txID, t.Status, storage.ErrTransactionNotPending)
		}

		// 2. Conditionally flip the status; the condition is the idempotency lock.
		now := time.Now().UTC()
		needsEffect := !t.BalanceApplied
		updates := map[string]any{"status": models.TransactionCompleted, "balance_applied": true, "updated_at": now}
		if externalReference != "" {
			updates["external_reference"] = externalReference
		}
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", txID, models.TransactionPending).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to complete transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			current, err := getTransaction(tx, txID)
			if err != nil {
				return err
			}
			if current.Status == models.TransactionCompleted {
				return nil
			}
			return fmt.Errorf("transaction %s is %s: %w", txID, current.Status, storage.ErrTransactionNotPending)
		}

		// 3. Apply the balance effect exactly once.
		if needsEffect {
			t.BalanceApplied = true
			if err := applyEffect(tx, t, now); err != nil {
				return err
			}
		}
		completed = true
		return nil
	})
	return completed, err
}

// FailTransaction moves a pending transaction without an applied effect to failed.
func (s *Store) FailTransaction(ctx context.Context, txID, reason string) (bool, error) {
	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ? AND balance_applied = ?", txID, models.TransactionPending, false).
		Updates(map[string]any{
			"status":         models.TransactionFailed,
			"failure_reason": reason,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to fail transaction: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	t, err := getTransaction(db, txID)
	if err != nil {
		return false, err
	}
	if t.Status.Terminal() {
		return false, nil
	}
	return false, fmt.Errorf("transaction %s has an applied balance effect: %w", txID, storage.ErrConflict)
}

// ReserveWithdrawal stores a pending withdrawal and debits the user atomically.
func (s *Store) ReserveWithdrawal(ctx context.Context, t *models.Transaction) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t.Status = models.TransactionPending
		t.BalanceApplied = true
		if err := applyEffect(tx, t, t.CreatedAt); err != nil {
			return err
		}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}
		return nil
	})
}

// CompensateWithdrawal fails a pending withdrawal and restores the debited balance.
func (s *Store) CompensateWithdrawal(ctx context.Context, txID, reason string, needsReconciliation bool) (bool, error) {
	compensated := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := getTransaction(tx, txID)
		if err != nil {
			return err
		}
		if t.Type != models.TransactionWithdrawal {
			return fmt.Errorf("transaction %s is a %s: %w", txID, t.Type, storage.ErrConflict)
		}
		if t.Status.Terminal() {
			return nil
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ? AND balance_applied = ?", txID, models.TransactionPending, true).
			Updates(map[string]any{
				"status":               models.TransactionFailed,
				"balance_applied":      false,
				"failure_reason":       reason,
				"needs_reconciliation": needsReconciliation,
				"updated_at":           now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to compensate withdrawal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := reverseEffect(tx, t, reason, now); err != nil {
			return err
		}
		compensated = true
		return nil
	})
	return compensated, err
}

// FlagForReconciliation marks a transaction for manual follow-up.
func (s *Store) FlagForReconciliation(ctx context.Context, txID, reason string) error {
	res := s.DB.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", txID).
		Updates(map[string]any{
			"needs_reconciliation": true,
			"failure_reason":       reason,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to flag transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	return nil
}
