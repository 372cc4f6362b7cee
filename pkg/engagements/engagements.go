// Package engagements records earners' proof-of-action submissions and guards
// campaigns against duplicate and abusive submissions.
package engagements

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/campaigns"
	"github.com/Dxtobi/xplus/pkg/geoip"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/paging"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/google/uuid"
)

// Store is the data access the submission guard needs.
type Store interface {
	storage.CampaignReader
	storage.EngagementStore
}

// Proof is what an earner submits to claim an action.
type Proof struct {
	ProofUsername string `json:"proof_username"`
	IPAddress     string `json:"-"`
	UserAgent     string `json:"-"`
	Referrer      string `json:"-"`
	DeviceInfo    string `json:"device_info,omitempty"`
}

// PendingEngagement is a queued submission as shown to the campaign owner.
type PendingEngagement struct {
	models.Engagement
	CampaignTitle string `json:"campaign_title"`
	Platform      string `json:"platform"`
	ProofLink     string `json:"proof_link,omitempty"`
}

// Service implements engagement submission and listing.
type Service struct {
	store   Store
	locator geoip.Locator
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates an engagement Service. A nil locator disables GeoIP.
func NewService(store Store, locator geoip.Locator, logger *slog.Logger) *Service {
	if locator == nil {
		locator = geoip.Nop{}
	}
	return &Service{store: store, locator: locator, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Fingerprint derives the uniqueness key of an engagement.
func Fingerprint(campaignID, userID, ip, username string) string {
	username = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	sum := sha256.Sum256([]byte(strings.Join([]string{campaignID, userID, strings.TrimSpace(ip), username}, "|")))
	return hex.EncodeToString(sum[:])
}

// Submit records a pending engagement against a campaign.
func (s *Service) Submit(ctx context.Context, campaignID, earnerID string, proof Proof) (*models.Engagement, error) {
	proof.ProofUsername = strings.TrimSpace(proof.ProofUsername)
	proof.IPAddress = strings.TrimSpace(proof.IPAddress)
	if strings.TrimPrefix(proof.ProofUsername, "@") == "" {
		return nil, apperrors.Validation("proof username is required")
	}
	if proof.IPAddress == "" {
		return nil, apperrors.Validation("client ip address is required")
	}

	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if campaign.OwnerID == earnerID {
		return nil, apperrors.New(apperrors.ErrForbidden, "you cannot engage with your own campaign")
	}

	fingerprint := Fingerprint(campaignID, earnerID, proof.IPAddress, proof.ProofUsername)
	switch _, err := s.store.FindEngagementByFingerprint(ctx, fingerprint); {
	case err == nil:
		return nil, apperrors.ErrDuplicateSubmission
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperrors.FromStore(err)
	}

	now := s.now()
	if !campaign.AcceptsEngagements(now) {
		return nil, apperrors.New(apperrors.ErrCampaignUnavailable, "campaign %s is %s and not accepting engagements", campaignID, campaign.Status)
	}

	engagement := &models.Engagement{
		ID:              uuid.New().String(),
		CampaignID:      campaign.ID,
		CampaignOwnerID: campaign.OwnerID,
		UserID:          earnerID,
		ActionType:      campaign.ActionType,
		ProofUsername:   proof.ProofUsername,
		IPAddress:       proof.IPAddress,
		UserAgent:       proof.UserAgent,
		Referrer:        proof.Referrer,
		DeviceInfo:      proof.DeviceInfo,
		Fingerprint:     fingerprint,
		Status:          models.EngagementPending,
		EarnedAmount:    campaign.CostPerAction,
		CreatedAt:       now,
	}
	if loc, err := s.locator.Lookup(ctx, proof.IPAddress); err != nil {
		s.logger.Debug("geoip lookup failed", "ip", proof.IPAddress, "error", err)
	} else if loc != nil {
		engagement.Location = *loc
	}

	earning := &models.Transaction{
		ID:            models.EarningID(engagement.ID),
		UserID:        earnerID,
		Type:          models.TransactionEngagementEarning,
		Amount:        engagement.EarnedAmount,
		Currency:      "NGN",
		Status:        models.TransactionPending,
		CampaignID:    campaign.ID,
		EngagementID:  engagement.ID,
		Description:   fmt.Sprintf("Earning for %s on campaign: %s", campaign.ActionType, campaign.Title),
		PaymentMethod: "wallet",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	updated, err := s.store.SubmitEngagement(ctx, engagement, earning)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	s.logger.Info("engagement submitted",
		"engagement_id", engagement.ID, "campaign_id", campaign.ID, "user_id", earnerID,
		"current_clicks", updated.CurrentClicks, "campaign_status", updated.Status)
	return engagement, nil
}

// ListForCreator pages through the pending engagements on the creator's campaigns.
func (s *Service) ListForCreator(ctx context.Context, creatorID string, page paging.Request) (paging.Page[PendingEngagement], error) {
	pending, err := s.store.ListPendingEngagementsByOwner(ctx, creatorID)
	if err != nil {
		return paging.Page[PendingEngagement]{}, apperrors.FromStore(err)
	}

	result := paging.Slice(pending, page)
	titles := make(map[string]*models.Campaign)
	items := make([]PendingEngagement, 0, len(result.Items))
	for _, e := range result.Items {
		campaign, ok := titles[e.CampaignID]
		if !ok {
			campaign, err = s.store.GetCampaign(ctx, e.CampaignID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return paging.Page[PendingEngagement]{}, apperrors.FromStore(err)
			}
			titles[e.CampaignID] = campaign
		}

		item := PendingEngagement{Engagement: e}
		if campaign != nil {
			item.CampaignTitle = campaign.Title
			item.Platform = campaign.Platform
			item.ProofLink = campaigns.ProofLink(campaign.Platform, e.ProofUsername)
		}
		items = append(items, item)
	}

	return paging.Page[PendingEngagement]{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: result.TotalPages,
	}, nil
}

// ListForEarner pages through an earner's submissions. An empty status matches all.
func (s *Service) ListForEarner(ctx context.Context, earnerID string, status models.EngagementStatus, page paging.Request) (paging.Page[models.Engagement], error) {
	switch status {
	case "", models.EngagementPending, models.EngagementApproved, models.EngagementRejected:
	default:
		return paging.Page[models.Engagement]{}, apperrors.Validation("unknown engagement status %q", status)
	}
	history, err := s.store.ListEngagementsByUser(ctx, earnerID, status)
	if err != nil {
		return paging.Page[models.Engagement]{}, apperrors.FromStore(err)
	}
	return paging.Slice(history, page), nil
}
