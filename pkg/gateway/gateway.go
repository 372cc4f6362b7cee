// Package gateway abstracts the payment provider used for deposits and payouts.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRejected is returned when the provider answered with a client error
	// and declined the request. Nothing was done on the provider's side.
	ErrRejected = errors.New("gateway rejected request")

	// ErrTransferNotFound is returned by VerifyTransfer when the provider has
	// no transfer under the reference.
	ErrTransferNotFound = errors.New("transfer not found")
)

// ProviderError is a non-success answer from the provider. Only a client
// error (4xx) is a definitive rejection; anything else leaves the outcome of
// the request unknown.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider answered %d: %s", e.Op, e.StatusCode, e.Message)
}

// Unwrap makes a client error match ErrRejected.
func (e *ProviderError) Unwrap() error {
	if e.StatusCode < http.StatusInternalServerError {
		return ErrRejected
	}
	return nil
}

// ChargeRequest describes a card charge in platform currency units.
type ChargeRequest struct {
	Amount      int64
	Email       string
	Reference   string
	CallbackURL string
}

// Charge is the result of initializing a charge.
type Charge struct {
	AuthorizationURL string
	Reference        string
}

// RecipientRequest identifies a bank account to pay out to.
type RecipientRequest struct {
	Name          string
	BankCode      string
	AccountNumber string
}

// Recipient is a verified payout destination.
type Recipient struct {
	RecipientCode string
	BankName      string
	AccountNumber string
}

// TransferRequest moves Amount platform currency units to a recipient.
type TransferRequest struct {
	Amount        int64
	RecipientCode string
	Reference     string
	Reason        string
}

// TransferStatus is the provider-reported state of a transfer.
type TransferStatus string

const (
	TransferSuccess  TransferStatus = "success"
	TransferPending  TransferStatus = "pending"
	TransferFailed   TransferStatus = "failed"
	TransferReversed TransferStatus = "reversed"
)

// Transfer is the provider's view of a transfer.
type Transfer struct {
	TransferCode string
	Reference    string
	Status       TransferStatus
}

// Final reports whether the provider considers the transfer settled.
func (t *Transfer) Final() bool {
	return t.Status == TransferSuccess
}

// Gateway is the payment provider used by deposits and payouts.
type Gateway interface {
	InitializeCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	VerifyWebhookSignature(body []byte, signature string) bool
	CreatePayoutRecipient(ctx context.Context, req RecipientRequest) (*Recipient, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	// VerifyTransfer looks a transfer up by the reference it was initiated with.
	VerifyTransfer(ctx context.Context, reference string) (*Transfer, error)
}
