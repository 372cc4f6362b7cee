package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"gorm.io/gorm"
)

// CreateCampaign writes the campaign and its payment in one transaction.
func (s *Store) CreateCampaign(ctx context.Context, campaign *models.Campaign, payment *models.Transaction) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Debit the owner; the balance condition guards against concurrent spending.
		payment.BalanceApplied = true
		if err := applyEffect(tx, payment, payment.CreatedAt); err != nil {
			return err
		}

		// 2. Create the campaign and its payment record.
		if err := tx.Create(campaign).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment transaction: %w", err)
		}
		return nil
	})
}

// GetCampaign retrieves a campaign by ID.
func (s *Store) GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.DB.WithContext(ctx).First(&campaign, "id = ?", campaignID).Error; err != nil {
		return nil, notFound(err, "campaign %s", campaignID)
	}
	return &campaign, nil
}

// UpdateCampaign persists the editable fields of a campaign that is still open.
func (s *Store) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	res := s.DB.WithContext(ctx).Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", campaign.ID, []models.CampaignStatus{models.CampaignActive, models.CampaignPaused}).
		Updates(map[string]any{
			"title":       campaign.Title,
			"description": campaign.Description,
			"status":      campaign.Status,
			"updated_at":  campaign.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update campaign: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("campaign %s is no longer editable: %w", campaign.ID, storage.ErrConflict)
	}
	return nil
}

// CancelCampaign deletes an untouched campaign and refunds its owner.
func (s *Store) CancelCampaign(ctx context.Context, campaign *models.Campaign, refund *models.Transaction) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Delete only while no engagement has been recorded.
		res := tx.Where("id = ? AND current_clicks = 0 AND status IN ?", campaign.ID,
			[]models.CampaignStatus{models.CampaignActive, models.CampaignPaused}).
			Delete(&models.Campaign{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete campaign: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var current models.Campaign
			if err := tx.First(&current, "id = ?", campaign.ID).Error; err != nil {
				return notFound(err, "campaign %s", campaign.ID)
			}
			if current.CurrentClicks > 0 {
				return storage.ErrCampaignHasEngagements
			}
			return fmt.Errorf("campaign %s is %s: %w", campaign.ID, current.Status, storage.ErrConflict)
		}

		// 2. Credit the refund.
		refund.BalanceApplied = true
		if err := applyEffect(tx, refund, refund.CreatedAt); err != nil {
			return err
		}
		if err := tx.Create(refund).Error; err != nil {
			return fmt.Errorf("failed to create refund transaction: %w", err)
		}
		return nil
	})
}

// ListCampaignsByOwner lists an owner's campaigns, newest first.
func (s *Store) ListCampaignsByOwner(ctx context.Context, ownerID string, status models.CampaignStatus) ([]models.Campaign, error) {
	q := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var campaigns []models.Campaign
	if err := q.Order("created_at desc").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// ListActiveCampaigns lists every active campaign, newest first.
func (s *Store) ListActiveCampaigns(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := s.DB.WithContext(ctx).Where("status = ?", models.CampaignActive).
		Order("created_at desc").Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	return campaigns, nil
}

// completionUpdates advances the progress counters by one and applies the
// completion rule in the same statement.
func completionUpdates(now time.Time) map[string]any {
	reached := "current_clicks + 1 >= target_amount"
	return map[string]any{
		"current_clicks": gorm.Expr("current_clicks + 1"),
		"unique_users":   gorm.Expr("unique_users + 1"),
		"status":         gorm.Expr("CASE WHEN "+reached+" THEN ? ELSE status END", models.CampaignCompleted),
		"is_completed":   gorm.Expr("CASE WHEN "+reached+" THEN ? ELSE is_completed END", true),
		"completed_at":   gorm.Expr("CASE WHEN "+reached+" THEN ? ELSE completed_at END", now),
		"updated_at":     now,
	}
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
