package storage

import (
	"context"

	"github.com/Dxtobi/xplus/pkg/models"
)

// CampaignReader defines read access to campaigns.
type CampaignReader interface {
	// GetCampaign retrieves a campaign by ID.
	GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error)

	// ListCampaignsByOwner lists an owner's campaigns, newest first. An empty status matches all.
	ListCampaignsByOwner(ctx context.Context, ownerID string, status models.CampaignStatus) ([]models.Campaign, error)

	// ListActiveCampaigns lists every campaign in the active state, newest first.
	ListActiveCampaigns(ctx context.Context) ([]models.Campaign, error)
}

// CampaignStore defines the interface for the campaign lifecycle.
type CampaignStore interface {
	CampaignReader

	// CreateCampaign atomically writes the campaign and its completed payment
	// transaction, debits the owner and records the ledger entry.
	// Returns ErrInsufficientFunds if the owner's balance cannot cover payment.Amount.
	CreateCampaign(ctx context.Context, campaign *models.Campaign, payment *models.Transaction) error

	// UpdateCampaign persists title, description and status changes.
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) error

	// CancelCampaign atomically deletes the campaign, credits the refund to the
	// owner and records the ledger entry. Returns ErrCampaignHasEngagements if
	// any engagement was recorded before the write.
	CancelCampaign(ctx context.Context, campaign *models.Campaign, refund *models.Transaction) error
}
