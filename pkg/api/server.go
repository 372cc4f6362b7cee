package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all authenticated server handlers.
type ServerInterface interface {
	// (GET /campaigns)
	ListCampaigns(w http.ResponseWriter, r *http.Request, params ListCampaignsParams)
	// (POST /campaigns)
	CreateCampaign(w http.ResponseWriter, r *http.Request)
	// (GET /campaigns/available)
	ListAvailableCampaigns(w http.ResponseWriter, r *http.Request, params ListAvailableCampaignsParams)
	// (GET /campaigns/{campaignId})
	GetCampaign(w http.ResponseWriter, r *http.Request, campaignId string)
	// (PATCH /campaigns/{campaignId})
	UpdateCampaign(w http.ResponseWriter, r *http.Request, campaignId string)
	// (DELETE /campaigns/{campaignId})
	CancelCampaign(w http.ResponseWriter, r *http.Request, campaignId string)
	// (POST /campaigns/{campaignId}/engage)
	SubmitEngagement(w http.ResponseWriter, r *http.Request, campaignId string)
	// (GET /engagements)
	ListEngagements(w http.ResponseWriter, r *http.Request, params ListEngagementsParams)
	// (GET /engagements/pending)
	ListPendingEngagements(w http.ResponseWriter, r *http.Request, params ListPendingEngagementsParams)
	// (POST /engagements/review)
	ReviewEngagements(w http.ResponseWriter, r *http.Request)
	// (POST /payments/deposit)
	InitializeDeposit(w http.ResponseWriter, r *http.Request)
	// (POST /payouts/recipient)
	AddPayoutRecipient(w http.ResponseWriter, r *http.Request)
	// (GET /payouts/eligibility)
	GetPayoutEligibility(w http.ResponseWriter, r *http.Request)
	// (POST /payouts/withdraw)
	Withdraw(w http.ResponseWriter, r *http.Request)
	// (GET /me)
	GetProfile(w http.ResponseWriter, r *http.Request)
	// (GET /me/analytics)
	GetAnalytics(w http.ResponseWriter, r *http.Request)
	// (GET /transactions)
	ListTransactions(w http.ResponseWriter, r *http.Request, params ListTransactionsParams)
	// (GET /transactions/{transactionId})
	GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId string)
	// (GET /ledger)
	ListLedgerEntries(w http.ResponseWriter, r *http.Request, params ListLedgerEntriesParams)
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// MiddlewareFunc wraps a single route handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper binds request parameters before calling the handlers.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	var handler http.Handler = fn
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (siw *ServerInterfaceWrapper) queryParam(w http.ResponseWriter, r *http.Request, name string, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

// ListCampaigns operation middleware
func (siw *ServerInterfaceWrapper) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	var params ListCampaignsParams
	if !siw.queryParam(w, r, "status", &params.Status) ||
		!siw.queryParam(w, r, "page", &params.Page) ||
		!siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListCampaigns(w, r, params)
	})
}

// CreateCampaign operation middleware
func (siw *ServerInterfaceWrapper) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateCampaign)
}

// ListAvailableCampaigns operation middleware
func (siw *ServerInterfaceWrapper) ListAvailableCampaigns(w http.ResponseWriter, r *http.Request) {
	var params ListAvailableCampaignsParams
	if !siw.queryParam(w, r, "platform", &params.Platform) ||
		!siw.queryParam(w, r, "action_type", &params.ActionType) ||
		!siw.queryParam(w, r, "category", &params.Category) ||
		!siw.queryParam(w, r, "page", &params.Page) ||
		!siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListAvailableCampaigns(w, r, params)
	})
}

// GetCampaign operation middleware
func (siw *ServerInterfaceWrapper) GetCampaign(w http.ResponseWriter, r *http.Request) {
	var campaignId string
	if !siw.pathParam(w, r, "campaignId", &campaignId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetCampaign(w, r, campaignId)
	})
}

// UpdateCampaign operation middleware
func (siw *ServerInterfaceWrapper) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var campaignId string
	if !siw.pathParam(w, r, "campaignId", &campaignId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateCampaign(w, r, campaignId)
	})
}

// CancelCampaign operation middleware
func (siw *ServerInterfaceWrapper) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	var campaignId string
	if !siw.pathParam(w, r, "campaignId", &campaignId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CancelCampaign(w, r, campaignId)
	})
}

// SubmitEngagement operation middleware
func (siw *ServerInterfaceWrapper) SubmitEngagement(w http.ResponseWriter, r *http.Request) {
	var campaignId string
	if !siw.pathParam(w, r, "campaignId", &campaignId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SubmitEngagement(w, r, campaignId)
	})
}

// ListEngagements operation middleware
func (siw *ServerInterfaceWrapper) ListEngagements(w http.ResponseWriter, r *http.Request) {
	var params ListEngagementsParams
	if !siw.queryParam(w, r, "status", &params.Status) ||
		!siw.queryParam(w, r, "page", &params.Page) ||
		!siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListEngagements(w, r, params)
	})
}

// ListPendingEngagements operation middleware
func (siw *ServerInterfaceWrapper) ListPendingEngagements(w http.ResponseWriter, r *http.Request) {
	var params ListPendingEngagementsParams
	if !siw.queryParam(w, r, "page", &params.Page) ||
		!siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListPendingEngagements(w, r, params)
	})
}

// ReviewEngagements operation middleware
func (siw *ServerInterfaceWrapper) ReviewEngagements(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ReviewEngagements)
}

// InitializeDeposit operation middleware
func (siw *ServerInterfaceWrapper) InitializeDeposit(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.InitializeDeposit)
}

// AddPayoutRecipient operation middleware
func (siw *ServerInterfaceWrapper) AddPayoutRecipient(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.AddPayoutRecipient)
}

// GetPayoutEligibility operation middleware
func (siw *ServerInterfaceWrapper) GetPayoutEligibility(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetPayoutEligibility)
}

// Withdraw operation middleware
func (siw *ServerInterfaceWrapper) Withdraw(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Withdraw)
}

// GetProfile operation middleware
func (siw *ServerInterfaceWrapper) GetProfile(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetProfile)
}

// GetAnalytics operation middleware
func (siw *ServerInterfaceWrapper) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetAnalytics)
}

// ListTransactions operation middleware
func (siw *ServerInterfaceWrapper) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var params ListTransactionsParams
	if !siw.queryParam(w, r, "type", &params.Type) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListTransactions(w, r, params)
	})
}

// GetTransactionById operation middleware
func (siw *ServerInterfaceWrapper) GetTransactionById(w http.ResponseWriter, r *http.Request) {
	var transactionId string
	if !siw.pathParam(w, r, "transactionId", &transactionId) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetTransactionById(w, r, transactionId)
	})
}

// ListLedgerEntries operation middleware
func (siw *ServerInterfaceWrapper) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	var params ListLedgerEntriesParams
	if !siw.queryParam(w, r, "limit", &params.Limit) {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListLedgerEntries(w, r, params)
	})
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerFromMux creates http.Handler with routing matching the API, mounted on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Get(base+"/campaigns", wrapper.ListCampaigns)
	r.Post(base+"/campaigns", wrapper.CreateCampaign)
	r.Get(base+"/campaigns/available", wrapper.ListAvailableCampaigns)
	r.Get(base+"/campaigns/{campaignId}", wrapper.GetCampaign)
	r.Patch(base+"/campaigns/{campaignId}", wrapper.UpdateCampaign)
	r.Delete(base+"/campaigns/{campaignId}", wrapper.CancelCampaign)
	r.Post(base+"/campaigns/{campaignId}/engage", wrapper.SubmitEngagement)
	r.Get(base+"/engagements", wrapper.ListEngagements)
	r.Get(base+"/engagements/pending", wrapper.ListPendingEngagements)
	r.Post(base+"/engagements/review", wrapper.ReviewEngagements)
	r.Post(base+"/payments/deposit", wrapper.InitializeDeposit)
	r.Post(base+"/payouts/recipient", wrapper.AddPayoutRecipient)
	r.Get(base+"/payouts/eligibility", wrapper.GetPayoutEligibility)
	r.Post(base+"/payouts/withdraw", wrapper.Withdraw)
	r.Get(base+"/me", wrapper.GetProfile)
	r.Get(base+"/me/analytics", wrapper.GetAnalytics)
	r.Get(base+"/transactions", wrapper.ListTransactions)
	r.Get(base+"/transactions/{transactionId}", wrapper.GetTransactionById)
	r.Get(base+"/ledger", wrapper.ListLedgerEntries)

	return r
}
