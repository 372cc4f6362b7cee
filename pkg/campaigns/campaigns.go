// Package campaigns manages the funded campaign lifecycle: creation against
// the owner's wallet, edits, cancellation with refund, and discovery.
package campaigns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/paging"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/google/uuid"
)

// DefaultTTL is how long a campaign accepts engagements.
const DefaultTTL = 30 * 24 * time.Hour

// Store is the data access the lifecycle manager needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	storage.CampaignStore
	ListEngagementsByUser(ctx context.Context, userID string, status models.EngagementStatus) ([]models.Engagement, error)
}

// NewCampaign is a creation request. Cost is always computed server-side.
type NewCampaign struct {
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Platform     string   `json:"platform,omitempty"`
	ActionType   string   `json:"action_type"`
	Category     string   `json:"category,omitempty"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	TargetAmount int64    `json:"target_amount"`
}

// CampaignUpdate carries the editable fields. Nil fields are unchanged.
type CampaignUpdate struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Status      *models.CampaignStatus `json:"status,omitempty"`
}

// Filters narrows the available campaign listing.
type Filters struct {
	Platform   string
	ActionType string
	Category   string
}

// Service implements the campaign lifecycle.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a campaign Service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Validate checks a creation request and fills derived defaults.
func (r *NewCampaign) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Link = strings.TrimSpace(r.Link)
	r.Description = strings.TrimSpace(r.Description)

	switch {
	case r.Title == "":
		return apperrors.Validation("title is required")
	case utf8.RuneCountInString(r.Title) > MaxTitleLength:
		return apperrors.Validation("title must be at most %d characters", MaxTitleLength)
	case !linkPattern.MatchString(r.Link):
		return apperrors.Validation("link must be a valid http or https URL")
	case utf8.RuneCountInString(r.Description) > MaxDescriptionLength:
		return apperrors.Validation("description must be at most %d characters", MaxDescriptionLength)
	case r.TargetAmount < MinTarget || r.TargetAmount > MaxTarget:
		return apperrors.Validation("target amount must be between %d and %d", MinTarget, MaxTarget)
	}
	if _, ok := RateFor(r.ActionType); !ok {
		return apperrors.Validation("unsupported action type %q", r.ActionType)
	}

	if r.Platform == "" {
		r.Platform = DetectPlatform(r.Link)
	} else if !platforms[r.Platform] {
		return apperrors.Validation("unsupported platform %q", r.Platform)
	}
	if r.Category == "" {
		r.Category = "other"
	} else if !categories[r.Category] {
		return apperrors.Validation("unsupported category %q", r.Category)
	}
	return nil
}

// Create funds and opens a campaign from the owner's balance.
func (s *Service) Create(ctx context.Context, ownerID string, req NewCampaign) (*models.Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	costPerAction, _ := RateFor(req.ActionType)
	cost := ComputeCost(costPerAction, req.TargetAmount)

	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if owner.Balance < cost {
		return nil, apperrors.New(apperrors.ErrInsufficientFunds, "campaign costs %d but balance is %d", cost, owner.Balance)
	}

	now := s.now()
	campaign := &models.Campaign{
		ID:            uuid.New().String(),
		OwnerID:       ownerID,
		Title:         req.Title,
		Link:          req.Link,
		Platform:      req.Platform,
		ActionType:    req.ActionType,
		Category:      req.Category,
		Description:   req.Description,
		Tags:          req.Tags,
		TargetAmount:  req.TargetAmount,
		CostPerAction: costPerAction,
		Cost:          cost,
		Status:        models.CampaignActive,
		ExpiresAt:     now.Add(DefaultTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	payment := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        ownerID,
		Type:          models.TransactionCampaignPayment,
		Amount:        cost,
		Currency:      "NGN",
		Status:        models.TransactionCompleted,
		CampaignID:    campaign.ID,
		Description:   fmt.Sprintf("Payment for campaign: %s", campaign.Title),
		PaymentMethod: "wallet",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateCampaign(ctx, campaign, payment); err != nil {
		return nil, apperrors.FromStore(err)
	}
	s.logger.Info("campaign created", "campaign_id", campaign.ID, "owner_id", ownerID, "cost", cost)
	return campaign, nil
}

// Get returns a campaign by ID.
func (s *Service) Get(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return campaign, nil
}

func (s *Service) owned(ctx context.Context, ownerID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.OwnerID != ownerID {
		return nil, apperrors.New(apperrors.ErrForbidden, "campaign %s belongs to another user", campaignID)
	}
	return campaign, nil
}

// Update edits the title or description, or pauses and resumes a campaign.
func (s *Service) Update(ctx context.Context, ownerID, campaignID string, req CampaignUpdate) (*models.Campaign, error) {
	campaign, err := s.owned(ctx, ownerID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignActive && campaign.Status != models.CampaignPaused {
		return nil, apperrors.New(apperrors.ErrConflict, "a %s campaign cannot be edited", campaign.Status)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || utf8.RuneCountInString(title) > MaxTitleLength {
			return nil, apperrors.Validation("title must be 1 to %d characters", MaxTitleLength)
		}
		campaign.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if utf8.RuneCountInString(description) > MaxDescriptionLength {
			return nil, apperrors.Validation("description must be at most %d characters", MaxDescriptionLength)
		}
		campaign.Description = description
	}
	if req.Status != nil {
		if *req.Status != models.CampaignActive && *req.Status != models.CampaignPaused {
			return nil, apperrors.Validation("status can only be set to active or paused")
		}
		campaign.Status = *req.Status
	}
	campaign.UpdatedAt = s.now()

	if err := s.store.UpdateCampaign(ctx, campaign); err != nil {
		return nil, apperrors.FromStore(err)
	}
	return campaign, nil
}

// Cancel deletes a campaign nobody has engaged with and refunds its cost.
func (s *Service) Cancel(ctx context.Context, ownerID, campaignID string) error {
	campaign, err := s.owned(ctx, ownerID, campaignID)
	if err != nil {
		return err
	}
	if campaign.CurrentClicks > 0 {
		return apperrors.New(apperrors.ErrCampaignHasEngagements, "campaign %s already has %d engagements", campaignID, campaign.CurrentClicks)
	}

	now := s.now()
	refund := &models.Transaction{
		ID:            uuid.New().String(),
		UserID:        ownerID,
		Type:          models.TransactionRefund,
		Amount:        campaign.Cost,
		Currency:      "NGN",
		Status:        models.TransactionCompleted,
		CampaignID:    campaign.ID,
		Description:   fmt.Sprintf("Refund for cancelled campaign: %s", campaign.Title),
		PaymentMethod: "wallet",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CancelCampaign(ctx, campaign, refund); err != nil {
		if errors.Is(err, storage.ErrCampaignHasEngagements) {
			s.logger.Info("campaign cancellation lost to a submission", "campaign_id", campaignID)
		}
		return apperrors.FromStore(err)
	}
	s.logger.Info("campaign cancelled", "campaign_id", campaignID, "refund", campaign.Cost)
	return nil
}

// ListByOwner pages through the owner's campaigns. An empty status matches all.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, status models.CampaignStatus, page paging.Request) (paging.Page[models.Campaign], error) {
	campaigns, err := s.store.ListCampaignsByOwner(ctx, ownerID, status)
	if err != nil {
		return paging.Page[models.Campaign]{}, apperrors.FromStore(err)
	}
	return paging.Slice(campaigns, page), nil
}

// ListAvailable pages through the campaigns userID can still engage with.
func (s *Service) ListAvailable(ctx context.Context, userID string, filters Filters, page paging.Request) (paging.Page[models.Campaign], error) {
	active, err := s.store.ListActiveCampaigns(ctx)
	if err != nil {
		return paging.Page[models.Campaign]{}, apperrors.FromStore(err)
	}
	engagements, err := s.store.ListEngagementsByUser(ctx, userID, "")
	if err != nil {
		return paging.Page[models.Campaign]{}, apperrors.FromStore(err)
	}
	engaged := make(map[string]bool, len(engagements))
	for _, e := range engagements {
		engaged[e.CampaignID] = true
	}

	now := s.now()
	available := make([]models.Campaign, 0, len(active))
	for _, c := range active {
		switch {
		case c.OwnerID == userID, engaged[c.ID], c.IsCompleted, !c.AcceptsEngagements(now):
			continue
		case filters.Platform != "" && c.Platform != filters.Platform:
			continue
		case filters.ActionType != "" && c.ActionType != filters.ActionType:
			continue
		case filters.Category != "" && c.Category != filters.Category:
			continue
		}
		available = append(available, c)
	}
	return paging.Slice(available, page), nil
}
