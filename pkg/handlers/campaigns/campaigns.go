package campaigns

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/campaigns"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/paging"
)

// CampaignService is the campaign lifecycle the handlers drive.
type CampaignService interface {
	Create(ctx context.Context, ownerID string, req campaigns.NewCampaign) (*models.Campaign, error)
	Get(ctx context.Context, campaignID string) (*models.Campaign, error)
	Update(ctx context.Context, ownerID, campaignID string, req campaigns.CampaignUpdate) (*models.Campaign, error)
	Cancel(ctx context.Context, ownerID, campaignID string) error
	ListByOwner(ctx context.Context, ownerID string, status models.CampaignStatus, page paging.Request) (paging.Page[models.Campaign], error)
	ListAvailable(ctx context.Context, userID string, filters campaigns.Filters, page paging.Request) (paging.Page[models.Campaign], error)
}

// CampaignsHandler holds the dependencies for campaign-related handlers.
type CampaignsHandler struct {
	Service CampaignService
	Logger  *slog.Logger
}

// NewCampaignsHandler creates a new CampaignsHandler.
func NewCampaignsHandler(service CampaignService, logger *slog.Logger) *CampaignsHandler {
	return &CampaignsHandler{Service: service, Logger: logger}
}

// CreateCampaign debits the owner and opens a new campaign.
func (h *CampaignsHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var newCampaign api.NewCampaign
	if err := respond.Decode(r, &newCampaign); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	campaign, err := h.Service.Create(r.Context(), middleware.UserID(r.Context()), mapping.ToDomainNewCampaign(&newCampaign))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, mapping.ToApiCampaign(campaign))
}

// ListCampaigns lists the caller's own campaigns.
func (h *CampaignsHandler) ListCampaigns(w http.ResponseWriter, r *http.Request, params api.ListCampaignsParams) {
	var status models.CampaignStatus
	if params.Status != nil {
		status = models.CampaignStatus(*params.Status)
	}

	page, err := h.Service.ListByOwner(r.Context(), middleware.UserID(r.Context()), status, mapping.ToPagingRequest(params.Page, params.Limit))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiPage(page, mapping.ToApiCampaign))
}

// ListAvailableCampaigns lists the campaigns the caller can still engage with.
func (h *CampaignsHandler) ListAvailableCampaigns(w http.ResponseWriter, r *http.Request, params api.ListAvailableCampaignsParams) {
	var filters campaigns.Filters
	if params.Platform != nil {
		filters.Platform = *params.Platform
	}
	if params.ActionType != nil {
		filters.ActionType = *params.ActionType
	}
	if params.Category != nil {
		filters.Category = *params.Category
	}

	page, err := h.Service.ListAvailable(r.Context(), middleware.UserID(r.Context()), filters, mapping.ToPagingRequest(params.Page, params.Limit))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiPage(page, mapping.ToApiCampaign))
}

// GetCampaign returns a single campaign.
func (h *CampaignsHandler) GetCampaign(w http.ResponseWriter, r *http.Request, campaignId string) {
	campaign, err := h.Service.Get(r.Context(), campaignId)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiCampaign(campaign))
}

// UpdateCampaign edits the caller's campaign.
func (h *CampaignsHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request, campaignId string) {
	var patch api.CampaignPatch
	if err := respond.Decode(r, &patch); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	campaign, err := h.Service.Update(r.Context(), middleware.UserID(r.Context()), campaignId, mapping.ToDomainCampaignUpdate(&patch))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiCampaign(campaign))
}

// CancelCampaign cancels the caller's campaign and refunds its cost.
func (h *CampaignsHandler) CancelCampaign(w http.ResponseWriter, r *http.Request, campaignId string) {
	if err := h.Service.Cancel(r.Context(), middleware.UserID(r.Context()), campaignId); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
