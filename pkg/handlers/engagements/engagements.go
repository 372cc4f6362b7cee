package engagements

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/engagements"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/paging"
	"github.com/Dxtobi/xplus/pkg/ratelimit"
)

// EngagementService records and lists engagements.
type EngagementService interface {
	Submit(ctx context.Context, campaignID, earnerID string, proof engagements.Proof) (*models.Engagement, error)
	ListForCreator(ctx context.Context, creatorID string, page paging.Request) (paging.Page[engagements.PendingEngagement], error)
	ListForEarner(ctx context.Context, earnerID string, status models.EngagementStatus, page paging.Request) (paging.Page[models.Engagement], error)
}

// Reviewer settles a creator's review decisions.
type Reviewer interface {
	Review(ctx context.Context, creatorID string, engagementIDs []string, decision models.EngagementStatus, reason string) ([]models.Engagement, error)
}

// EngagementsHandler holds the dependencies for engagement-related handlers.
type EngagementsHandler struct {
	Engagements EngagementService
	Reviewer    Reviewer
	Limiter     ratelimit.Limiter
	Logger      *slog.Logger
}

// NewEngagementsHandler creates a new EngagementsHandler. A nil limiter disables rate limiting.
func NewEngagementsHandler(svc EngagementService, reviewer Reviewer, limiter ratelimit.Limiter, logger *slog.Logger) *EngagementsHandler {
	return &EngagementsHandler{Engagements: svc, Reviewer: reviewer, Limiter: limiter, Logger: logger}
}

// SubmitEngagement records the caller's proof of action on a campaign.
func (h *EngagementsHandler) SubmitEngagement(w http.ResponseWriter, r *http.Request, campaignId string) {
	userID := middleware.UserID(r.Context())
	if h.Limiter != nil {
		allowed, err := h.Limiter.Allow(r.Context(), userID)
		if err != nil {
			h.Logger.Warn("rate limiter unavailable", "user_id", userID, "error", err)
		}
		if !allowed {
			respond.Error(w, h.Logger, apperrors.ErrRateLimited)
			return
		}
	}

	var newEngagement api.NewEngagement
	if err := respond.Decode(r, &newEngagement); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	proof := mapping.ToDomainProof(&newEngagement)
	proof.IPAddress = clientIP(r)
	proof.UserAgent = r.UserAgent()
	proof.Referrer = r.Referer()

	engagement, err := h.Engagements.Submit(r.Context(), campaignId, userID, proof)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, mapping.ToApiEngagement(engagement))
}

// ListEngagements returns the caller's submission history.
func (h *EngagementsHandler) ListEngagements(w http.ResponseWriter, r *http.Request, params api.ListEngagementsParams) {
	var status models.EngagementStatus
	if params.Status != nil {
		status = models.EngagementStatus(*params.Status)
	}

	page, err := h.Engagements.ListForEarner(r.Context(), middleware.UserID(r.Context()), status, mapping.ToPagingRequest(params.Page, params.Limit))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiPage(page, mapping.ToApiEngagement))
}

// ListPendingEngagements returns the review queue of the caller's campaigns.
func (h *EngagementsHandler) ListPendingEngagements(w http.ResponseWriter, r *http.Request, params api.ListPendingEngagementsParams) {
	page, err := h.Engagements.ListForCreator(r.Context(), middleware.UserID(r.Context()), mapping.ToPagingRequest(params.Page, params.Limit))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiPage(page, mapping.ToApiPendingEngagement))
}

// ReviewEngagements approves or rejects a batch of the caller's pending engagements.
func (h *EngagementsHandler) ReviewEngagements(w http.ResponseWriter, r *http.Request) {
	var req api.ReviewRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.Logger, err)
		return
	}
	var reason string
	if req.Reason != nil {
		reason = *req.Reason
	}

	reviewed, err := h.Reviewer.Review(r.Context(), middleware.UserID(r.Context()), req.EngagementIds, models.EngagementStatus(req.Decision), reason)
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiReviewResult(reviewed))
}

// clientIP is the caller's address. chi's RealIP middleware has already
// replaced RemoteAddr with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
