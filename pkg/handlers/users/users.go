package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/mapping"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/users"
)

// ProfileService reads the caller's profile and dashboard.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	Analytics(ctx context.Context, userID string) (*users.Analytics, error)
}

// UsersHandler holds the dependencies for profile handlers.
type UsersHandler struct {
	Service ProfileService
	Logger  *slog.Logger
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(service ProfileService, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{Service: service, Logger: logger}
}

// GetProfile returns the caller's profile and wallet.
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetProfile(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiUser(user))
}

// GetAnalytics returns the caller's dashboard summary.
func (h *UsersHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.Service.Analytics(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		respond.Error(w, h.Logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, mapping.ToApiAnalytics(analytics))
}
