package sqlstore

import (
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/ledger"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"gorm.io/gorm"
)

// applyEffect moves t's balance effect onto its user and records the ledger
// entry. It must run inside a transaction.
func applyEffect(tx *gorm.DB, t *models.Transaction, now time.Time) error {
	effect := ledger.Effect(*t)
	updates := map[string]any{
		"balance": gorm.Expr("balance + ?", effect),
		"version": gorm.Expr("version + 1"),
	}
	switch t.Type {
	case models.TransactionEngagementEarning:
		updates["total_earned"] = gorm.Expr("total_earned + ?", t.Amount)
	case models.TransactionCampaignPayment:
		updates["total_spent"] = gorm.Expr("total_spent + ?", t.Amount)
	case models.TransactionRefund:
		updates["total_spent"] = gorm.Expr("total_spent - ?", t.Amount)
	}

	q := tx.Model(&models.User{}).Where("id = ?", t.UserID)
	if effect < 0 {
		q = q.Where("balance >= ?", -effect)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance of %s: %w", t.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		if effect < 0 {
			return storage.ErrInsufficientFunds
		}
		return fmt.Errorf("user %s: %w", t.UserID, storage.ErrNotFound)
	}

	entry := ledger.EntryFor(*t, now)
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// reverseEffect re-credits a debit that was applied at reservation time.
func reverseEffect(tx *gorm.DB, t *models.Transaction, reason string, now time.Time) error {
	res := tx.Model(&models.User{}).Where("id = ?", t.UserID).Updates(map[string]any{
		"balance": gorm.Expr("balance - ?", ledger.Effect(*t)),
		"version": gorm.Expr("version + 1"),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to restore balance of %s: %w", t.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", t.UserID, storage.ErrNotFound)
	}

	entry := ledger.ReversalFor(*t, reason, now)
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create reversal entry: %w", err)
	}
	return nil
}
