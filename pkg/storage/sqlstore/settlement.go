package sqlstore

import (
	"context"
	"fmt"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"gorm.io/gorm"
)

// ApplyReview settles a review batch in one transaction.
func (s *Store) ApplyReview(ctx context.Context, items []storage.ReviewItem) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := applyReviewItem(tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyReviewItem(tx *gorm.DB, item *storage.ReviewItem) error {
	e := item.Engagement

	// 1. Lock the decision: only a pending engagement may be decided.
	res := tx.Model(&models.Engagement{}).
		Where("id = ? AND status = ?", e.ID, models.EngagementPending).
		Updates(map[string]any{
			"status":           e.Status,
			"reviewed_at":      e.ReviewedAt,
			"rejection_reason": e.RejectionReason,
			"review_note":      e.ReviewNote,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update engagement %s: %w", e.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("engagement %s: %w", e.ID, storage.ErrAlreadyReviewed)
	}

	earning := item.Earning
	if earning == nil {
		return nil
	}

	// 2. Move the earning to its decided state.
	if item.NewEarning {
		if err := tx.Create(earning).Error; err != nil {
			return fmt.Errorf("failed to create earning transaction: %w", err)
		}
	} else {
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ? AND balance_applied = ?", earning.ID, models.TransactionPending, false).
			Updates(map[string]any{
				"status":          earning.Status,
				"amount":          earning.Amount,
				"balance_applied": earning.BalanceApplied,
				"details":         earning.Details,
				"updated_at":      earning.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update earning transaction %s: %w", earning.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("earning %s: %w", earning.ID, storage.ErrAlreadyReviewed)
		}
	}

	if e.Status != models.EngagementApproved {
		return nil
	}

	// 3. Credit the earner and count the approval on the campaign.
	if err := applyEffect(tx, earning, earning.UpdatedAt); err != nil {
		return err
	}
	reached := "current_clicks >= target_amount AND status = '" + string(models.CampaignActive) + "'"
	res = tx.Model(&models.Campaign{}).Where("id = ?", e.CampaignID).Updates(map[string]any{
		"approved_clicks": gorm.Expr("approved_clicks + 1"),
		"status":          gorm.Expr("CASE WHEN "+reached+" THEN ? ELSE status END", models.CampaignCompleted),
		"is_completed":    gorm.Expr("CASE WHEN "+reached+" THEN ? ELSE is_completed END", true),
		"completed_at":    gorm.Expr("CASE WHEN "+reached+" THEN ? ELSE completed_at END", earning.UpdatedAt),
		"updated_at":      earning.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update campaign %s: %w", e.CampaignID, res.Error)
	}
	return nil
}
