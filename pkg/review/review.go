// Package review settles engagements: a creator's batch decision or the
// auto-approval sweep moves each pending engagement to approved or rejected and
// pays or cancels its earning in one atomic unit.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
)

const (
	// GracePeriod is how long an engagement may stay pending before the sweep approves it.
	GracePeriod = 72 * time.Hour

	// AutoApprovalNote is recorded on engagements approved by the sweep.
	AutoApprovalNote = "auto-approved after review grace period"
)

// Store is the data access the review engine needs.
type Store interface {
	storage.EngagementReader
	FindEarningByEngagement(ctx context.Context, engagementID string) (*models.Transaction, error)
	storage.SettlementStore
}

// Notifier is told about earners whose balance changed.
type Notifier interface {
	NotifyBalanceChanged(ctx context.Context, userID string)
}

// Service implements the review state machine.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a review Service. notifier may be nil.
func NewService(store Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Review applies one decision to a batch of engagements on the creator's campaigns.
// Either every engagement in the batch is settled or none is.
func (s *Service) Review(ctx context.Context, creatorID string, engagementIDs []string, decision models.EngagementStatus, reason string) ([]models.Engagement, error) {
	if decision != models.EngagementApproved && decision != models.EngagementRejected {
		return nil, apperrors.Validation("decision must be approved or rejected")
	}
	ids := dedupe(engagementIDs)
	switch {
	case len(ids) == 0:
		return nil, apperrors.Validation("at least one engagement id is required")
	case len(ids) > storage.MaxReviewBatch:
		return nil, apperrors.Validation("at most %d engagements can be reviewed at once", storage.MaxReviewBatch)
	}

	found, err := s.store.GetEngagements(ctx, ids)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	byID := make(map[string]models.Engagement, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}

	batch := make([]models.Engagement, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		switch {
		case !ok:
			return nil, apperrors.New(apperrors.ErrNotFound, "engagement %s not found", id)
		case e.CampaignOwnerID != creatorID:
			return nil, apperrors.New(apperrors.ErrUnauthorized, "engagement %s is not on one of your campaigns", id)
		case e.Status != models.EngagementPending:
			return nil, apperrors.New(apperrors.ErrAlreadyReviewed, "engagement %s is already %s", id, e.Status)
		}
		batch = append(batch, e)
	}

	reviewed, err := s.settle(ctx, batch, decision, strings.TrimSpace(reason), "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("engagements reviewed", "creator_id", creatorID, "decision", decision, "count", len(reviewed))
	return reviewed, nil
}

// AutoApprove approves every engagement pending for longer than GracePeriod and
// returns how many were settled. Batches that lose a race with a reviewer are
// skipped and picked up by the next sweep.
func (s *Service) AutoApprove(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.store.ListPendingEngagementsBefore(ctx, now.Add(-GracePeriod))
	if err != nil {
		return 0, apperrors.FromStore(err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	byOwner := make(map[string][]models.Engagement)
	var owners []string
	for _, e := range stale {
		if _, ok := byOwner[e.CampaignOwnerID]; !ok {
			owners = append(owners, e.CampaignOwnerID)
		}
		byOwner[e.CampaignOwnerID] = append(byOwner[e.CampaignOwnerID], e)
	}

	approved := 0
	for _, owner := range owners {
		for chunk := range slices.Chunk(byOwner[owner], storage.MaxReviewBatch) {
			reviewed, err := s.settle(ctx, chunk, models.EngagementApproved, "", AutoApprovalNote)
			switch {
			case errors.Is(err, apperrors.ErrAlreadyReviewed):
				s.logger.Warn("auto-approval batch raced a review", "owner_id", owner, "size", len(chunk))
				continue
			case err != nil:
				return approved, err
			}
			approved += len(reviewed)
		}
	}
	if approved > 0 {
		s.logger.Info("auto-approved stale engagements", "count", approved)
	}
	return approved, nil
}

func (s *Service) settle(ctx context.Context, batch []models.Engagement, decision models.EngagementStatus, reason, note string) ([]models.Engagement, error) {
	now := s.now()
	items := make([]storage.ReviewItem, 0, len(batch))
	for _, e := range batch {
		e.Status = decision
		e.ReviewedAt = &now
		e.ReviewNote = note
		if decision == models.EngagementRejected {
			e.RejectionReason = reason
		}

		item, err := s.reviewItem(ctx, e, now)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := s.store.ApplyReview(ctx, items); err != nil {
		return nil, apperrors.FromStore(err)
	}

	reviewed := make([]models.Engagement, 0, len(items))
	for _, item := range items {
		reviewed = append(reviewed, item.Engagement)
		if decision == models.EngagementApproved && s.notifier != nil {
			s.notifier.NotifyBalanceChanged(ctx, item.Engagement.UserID)
		}
	}
	return reviewed, nil
}

// reviewItem builds the target state of one engagement and its earning.
func (s *Service) reviewItem(ctx context.Context, e models.Engagement, now time.Time) (storage.ReviewItem, error) {
	item := storage.ReviewItem{Engagement: e}

	earning, err := s.store.FindEarningByEngagement(ctx, e.ID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if e.Status != models.EngagementApproved {
			return item, nil
		}
		earning = &models.Transaction{
			ID:            models.EarningID(e.ID),
			UserID:        e.UserID,
			Type:          models.TransactionEngagementEarning,
			Currency:      "NGN",
			CampaignID:    e.CampaignID,
			EngagementID:  e.ID,
			Description:   fmt.Sprintf("Earning for %s engagement", e.ActionType),
			PaymentMethod: "wallet",
			CreatedAt:     now,
		}
		item.NewEarning = true
	case err != nil:
		return item, apperrors.FromStore(err)
	}

	earning.UpdatedAt = now
	if e.Status == models.EngagementApproved {
		earning.Amount = e.EarnedAmount
		earning.Status = models.TransactionCompleted
		earning.BalanceApplied = true
		if e.ReviewNote != "" {
			earning.Details.Earning = &models.EarningDetails{ReviewNote: e.ReviewNote}
		}
	} else {
		earning.Status = models.TransactionCancelled
	}
	item.Earning = earning
	return item, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
