// Package apperrors defines the error taxonomy surfaced by the services and
// translated to HTTP responses by the handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups reasons by how a caller should react to them.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindForbidden
	KindNotFound
	KindStateConflict
	KindBusinessRule
	KindExternalService
	KindPersistence
	KindRateLimited
)

// Error is a classified failure with a stable machine-readable reason.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error carrying the same reason, so sentinels can be used with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrInvalidInput           = &Error{Kind: KindValidation, Reason: "invalid_input", Message: "invalid input"}
	ErrUnauthorized           = &Error{Kind: KindAuthorization, Reason: "unauthorized", Message: "unauthorized"}
	ErrForbidden              = &Error{Kind: KindForbidden, Reason: "forbidden", Message: "forbidden"}
	ErrNotFound               = &Error{Kind: KindNotFound, Reason: "not_found", Message: "not found"}
	ErrInsufficientFunds      = &Error{Kind: KindBusinessRule, Reason: "insufficient_funds", Message: "insufficient funds"}
	ErrCampaignUnavailable    = &Error{Kind: KindStateConflict, Reason: "campaign_unavailable", Message: "campaign is not accepting engagements"}
	ErrDuplicateSubmission    = &Error{Kind: KindStateConflict, Reason: "duplicate_submission", Message: "engagement already submitted"}
	ErrAlreadyReviewed        = &Error{Kind: KindStateConflict, Reason: "already_reviewed", Message: "engagement already reviewed"}
	ErrConflict               = &Error{Kind: KindStateConflict, Reason: "conflict", Message: "the record changed concurrently, retry the request"}
	ErrCampaignHasEngagements = &Error{Kind: KindBusinessRule, Reason: "campaign_has_engagements", Message: "campaign already has engagements"}
	ErrNoPayoutAccount        = &Error{Kind: KindBusinessRule, Reason: "no_payout_account", Message: "no payout account linked"}
	ErrBelowMinimum           = &Error{Kind: KindBusinessRule, Reason: "below_minimum", Message: "amount is below the minimum withdrawal"}
	ErrReputationTooLow       = &Error{Kind: KindBusinessRule, Reason: "reputation_too_low", Message: "approval rate is too low to withdraw"}
	ErrInvalidSignature       = &Error{Kind: KindAuthorization, Reason: "invalid_signature", Message: "invalid webhook signature"}
	ErrGatewayFailure         = &Error{Kind: KindExternalService, Reason: "gateway_failure", Message: "payment gateway request failed"}
	ErrInternal               = &Error{Kind: KindPersistence, Reason: "internal", Message: "internal error"}
	ErrRateLimited            = &Error{Kind: KindRateLimited, Reason: "rate_limited", Message: "too many requests, slow down"}
)

// New returns a copy of sentinel with a specific message.
func New(sentinel *Error, format string, args ...any) *Error {
	return &Error{Kind: sentinel.Kind, Reason: sentinel.Reason, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a copy of sentinel carrying the underlying cause.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Kind: sentinel.Kind, Reason: sentinel.Reason, Message: sentinel.Message, Err: err}
}

// Internal classifies an unexpected storage or programming failure.
func Internal(err error) *Error {
	return Wrap(ErrInternal, err)
}

// Validation is shorthand for an invalid_input error with a message.
func Validation(format string, args ...any) *Error {
	return New(ErrInvalidInput, format, args...)
}

// From extracts the classified error, treating anything unclassified as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch From(err).Kind {
	case KindValidation, KindStateConflict, KindBusinessRule:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalService:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
