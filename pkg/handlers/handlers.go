package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/handlers/campaigns"
	"github.com/Dxtobi/xplus/pkg/handlers/engagements"
	"github.com/Dxtobi/xplus/pkg/handlers/ledger"
	"github.com/Dxtobi/xplus/pkg/handlers/payments"
	"github.com/Dxtobi/xplus/pkg/handlers/payouts"
	"github.com/Dxtobi/xplus/pkg/handlers/respond"
	"github.com/Dxtobi/xplus/pkg/handlers/transactions"
	"github.com/Dxtobi/xplus/pkg/handlers/users"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/ratelimit"
	userservice "github.com/Dxtobi/xplus/pkg/users"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// ApiHandler implements the server interface by composing the resource handlers.
type ApiHandler struct {
	*campaigns.CampaignsHandler
	*engagements.EngagementsHandler
	*payments.PaymentsHandler
	*payouts.PayoutsHandler
	*users.UsersHandler
	*transactions.TransactionsHandler
	*ledger.LedgerHandler
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)

// Dependencies are the services behind the API.
type Dependencies struct {
	Campaigns   campaigns.CampaignService
	Engagements engagements.EngagementService
	Reviewer    engagements.Reviewer
	Payments    payments.PaymentService
	Payouts     payouts.PayoutService
	Users       *userservice.Service
	Limiter     ratelimit.Limiter
	Logger      *slog.Logger
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(deps Dependencies) *ApiHandler {
	return &ApiHandler{
		CampaignsHandler:    campaigns.NewCampaignsHandler(deps.Campaigns, deps.Logger),
		EngagementsHandler:  engagements.NewEngagementsHandler(deps.Engagements, deps.Reviewer, deps.Limiter, deps.Logger),
		PaymentsHandler:     payments.NewPaymentsHandler(deps.Payments, deps.Logger),
		PayoutsHandler:      payouts.NewPayoutsHandler(deps.Payouts, deps.Logger),
		UsersHandler:        users.NewUsersHandler(deps.Users, deps.Logger),
		TransactionsHandler: transactions.NewTransactionsHandler(deps.Users, deps.Logger),
		LedgerHandler:       ledger.NewLedgerHandler(deps.Users, deps.Logger),
	}
}

// NewRouter mounts the API on a chi router. The webhook is authenticated by
// its signature; every other route requires a bearer token. ws may be nil.
func NewRouter(h *ApiHandler, authenticator func(http.Handler) http.Handler, ws http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewStructuredLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/payments/webhook", h.HandlePaymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		if ws != nil {
			r.Handle("/ws", ws)
		}
		api.HandlerWithOptions(h, api.ChiServerOptions{
			BaseRouter:       r,
			ErrorHandlerFunc: respond.BadParam,
		})
	})

	return r
}
