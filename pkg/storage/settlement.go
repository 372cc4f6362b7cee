package storage

import (
	"context"

	"github.com/Dxtobi/xplus/pkg/models"
)

// MaxReviewBatch bounds the number of engagements settled in one atomic write.
const MaxReviewBatch = 20

// ReviewItem is the target state of one engagement in a review batch.
type ReviewItem struct {
	// Engagement carries the decided status, ReviewedAt, RejectionReason and ReviewNote.
	Engagement models.Engagement

	// Earning is the earning transaction in its target state. For an approval
	// it is completed with BalanceApplied set; for a rejection it is cancelled.
	// It may be nil for a rejection with no earning transaction on record.
	Earning *models.Transaction

	// NewEarning is set when no earning transaction existed and Earning must be created.
	NewEarning bool
}

// SettlementStore defines the highly-privileged interface for settling reviews.
// Every write it performs moves money, so it should only be exposed to the
// review engine.
type SettlementStore interface {
	// ApplyReview commits every item of the batch in one atomic unit: engagement
	// status changes conditioned on the engagement still being pending, earning
	// transaction completion or cancellation, earner balance credits, ledger
	// entries and campaign approval counters.
	// Returns ErrAlreadyReviewed if any engagement was concurrently settled.
	ApplyReview(ctx context.Context, items []ReviewItem) error
}
