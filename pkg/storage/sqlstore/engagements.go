package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"gorm.io/gorm"
)

// SubmitEngagement records the engagement and advances the campaign in one transaction.
func (s *Store) SubmitEngagement(ctx context.Context, engagement *models.Engagement, earning *models.Transaction) (*models.Campaign, error) {
	var campaign models.Campaign
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. The unique fingerprint index rejects duplicates.
		if err := tx.Create(engagement).Error; err != nil {
			if isDuplicate(err) {
				return storage.ErrDuplicateEngagement
			}
			return fmt.Errorf("failed to create engagement: %w", err)
		}

		// 2. Advance the campaign only while it still accepts engagements.
		res := tx.Model(&models.Campaign{}).
			Where("id = ? AND status = ? AND current_clicks < target_amount AND expires_at > ?",
				engagement.CampaignID, models.CampaignActive, engagement.CreatedAt).
			Updates(completionUpdates(engagement.CreatedAt))
		if res.Error != nil {
			return fmt.Errorf("failed to update campaign progress: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return storage.ErrCampaignUnavailable
		}

		// 3. The earning stays pending until review.
		if err := tx.Create(earning).Error; err != nil {
			return fmt.Errorf("failed to create earning transaction: %w", err)
		}

		if err := tx.First(&campaign, "id = ?", engagement.CampaignID).Error; err != nil {
			return notFound(err, "campaign %s", engagement.CampaignID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// GetEngagement retrieves an engagement by ID.
func (s *Store) GetEngagement(ctx context.Context, engagementID string) (*models.Engagement, error) {
	var engagement models.Engagement
	if err := s.DB.WithContext(ctx).First(&engagement, "id = ?", engagementID).Error; err != nil {
		return nil, notFound(err, "engagement %s", engagementID)
	}
	return &engagement, nil
}

// GetEngagements retrieves the engagements that exist among engagementIDs.
func (s *Store) GetEngagements(ctx context.Context, engagementIDs []string) ([]models.Engagement, error) {
	if len(engagementIDs) == 0 {
		return nil, nil
	}
	var engagements []models.Engagement
	if err := s.DB.WithContext(ctx).Where("id IN ?", engagementIDs).Find(&engagements).Error; err != nil {
		return nil, fmt.Errorf("failed to get engagements: %w", err)
	}
	return engagements, nil
}

// FindEngagementByFingerprint returns the engagement with the given fingerprint.
func (s *Store) FindEngagementByFingerprint(ctx context.Context, fingerprint string) (*models.Engagement, error) {
	var engagement models.Engagement
	if err := s.DB.WithContext(ctx).First(&engagement, "fingerprint = ?", fingerprint).Error; err != nil {
		return nil, notFound(err, "engagement fingerprint")
	}
	return &engagement, nil
}

// ListEngagementsByUser lists an earner's engagements, newest first.
func (s *Store) ListEngagementsByUser(ctx context.Context, userID string, status models.EngagementStatus) ([]models.Engagement, error) {
	q := s.DB.WithContext(ctx).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var engagements []models.Engagement
	if err := q.Order("created_at desc").Find(&engagements).Error; err != nil {
		return nil, fmt.Errorf("failed to list engagements: %w", err)
	}
	return engagements, nil
}

// ListPendingEngagementsByOwner lists pending engagements awaiting a creator's review.
func (s *Store) ListPendingEngagementsByOwner(ctx context.Context, ownerID string) ([]models.Engagement, error) {
	var engagements []models.Engagement
	err := s.DB.WithContext(ctx).
		Where("campaign_owner_id = ? AND status = ?", ownerID, models.EngagementPending).
		Order("created_at desc").Find(&engagements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending engagements: %w", err)
	}
	return engagements, nil
}

// ListPendingEngagementsBefore lists pending engagements created before cutoff, oldest first.
func (s *Store) ListPendingEngagementsBefore(ctx context.Context, cutoff time.Time) ([]models.Engagement, error) {
	var engagements []models.Engagement
	err := s.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.EngagementPending, cutoff).
		Order("created_at asc").Find(&engagements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale engagements: %w", err)
	}
	return engagements, nil
}

// CountEngagementsByUser returns an earner's total and approved engagement counts.
func (s *Store) CountEngagementsByUser(ctx context.Context, userID string) (int64, int64, error) {
	var total, approved int64
	db := s.DB.WithContext(ctx).Model(&models.Engagement{})
	if err := db.Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count engagements: %w", err)
	}
	db = s.DB.WithContext(ctx).Model(&models.Engagement{})
	if err := db.Where("user_id = ? AND status = ?", userID, models.EngagementApproved).Count(&approved).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count approved engagements: %w", err)
	}
	return total, approved, nil
}
