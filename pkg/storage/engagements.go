package storage

import (
	"context"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
)

// EngagementReader defines read access to engagements.
type EngagementReader interface {
	// GetEngagement retrieves an engagement by ID.
	GetEngagement(ctx context.Context, engagementID string) (*models.Engagement, error)

	// GetEngagements retrieves several engagements. Missing IDs are absent from the result.
	GetEngagements(ctx context.Context, engagementIDs []string) ([]models.Engagement, error)

	// FindEngagementByFingerprint returns the engagement with the given fingerprint, or ErrNotFound.
	FindEngagementByFingerprint(ctx context.Context, fingerprint string) (*models.Engagement, error)

	// ListEngagementsByUser lists an earner's engagements, newest first. An empty status matches all.
	ListEngagementsByUser(ctx context.Context, userID string, status models.EngagementStatus) ([]models.Engagement, error)

	// ListPendingEngagementsByOwner lists pending engagements on campaigns owned by ownerID, newest first.
	ListPendingEngagementsByOwner(ctx context.Context, ownerID string) ([]models.Engagement, error)

	// ListPendingEngagementsBefore lists pending engagements created before cutoff, oldest first.
	ListPendingEngagementsBefore(ctx context.Context, cutoff time.Time) ([]models.Engagement, error)

	// CountEngagementsByUser returns the total and approved engagement counts of an earner.
	CountEngagementsByUser(ctx context.Context, userID string) (total int64, approved int64, err error)
}

// EngagementStore defines the interface for recording engagements.
type EngagementStore interface {
	EngagementReader

	// SubmitEngagement atomically records a pending engagement and its pending
	// earning transaction, and advances the campaign's progress counters,
	// completing the campaign when the target is reached.
	// Returns ErrDuplicateEngagement or ErrCampaignUnavailable.
	SubmitEngagement(ctx context.Context, engagement *models.Engagement, earning *models.Transaction) (*models.Campaign, error)
}
