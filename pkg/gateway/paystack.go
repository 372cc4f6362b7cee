package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultBaseURL is the Paystack API root.
const DefaultBaseURL = "https://api.paystack.co"

// koboPerNaira converts platform units to the provider's minor unit.
const koboPerNaira = 100

// ToKobo converts a platform amount to the provider's minor unit.
func ToKobo(amount int64) int64 {
	return amount * koboPerNaira
}

// Paystack implements Gateway against the Paystack REST API.
type Paystack struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystack creates a Paystack client. A nil client uses http.DefaultClient.
func NewPaystack(baseURL, secretKey string, client *http.Client) *Paystack {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Paystack{baseURL: baseURL, secretKey: secretKey, client: client}
}

// Make sure we conform to the interface
var _ Gateway = (*Paystack)(nil)

// envelope is the response shape shared by every Paystack endpoint.
type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (e *envelope[T]) result() (bool, string) {
	return e.Status, e.Message
}

type statusReader interface {
	result() (bool, string)
}

// do sends a request and decodes the envelope into out. Only a 4xx answer or
// an envelope with status false matches ErrRejected; a 5xx answer, a body that
// is not an envelope and transport failures do not.
func (p *Paystack) do(ctx context.Context, op, method, path string, body any, out statusReader) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("encode paystack request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, &payload)
	if err != nil {
		return fmt.Errorf("build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: paystack %s %s: %w", op, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return &ProviderError{Op: op, StatusCode: resp.StatusCode, Message: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode paystack response (%s): %w", op, resp.Status, err)
	}
	if ok, message := out.result(); !ok || resp.StatusCode >= http.StatusBadRequest {
		status := resp.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		return &ProviderError{Op: op, StatusCode: status, Message: message}
	}
	return nil
}

type chargeData struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
}

// InitializeCharge starts a hosted checkout for req.Amount.
func (p *Paystack) InitializeCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body := map[string]any{
		"amount":       ToKobo(req.Amount),
		"email":        req.Email,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"metadata":     map[string]string{"internal_transaction_id": req.Reference},
	}
	var resp envelope[chargeData]
	if err := p.do(ctx, "initialize charge", http.MethodPost, "/transaction/initialize", body, &resp); err != nil {
		return nil, err
	}
	return &Charge{AuthorizationURL: resp.Data.AuthorizationURL, Reference: resp.Data.Reference}, nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA512 of the raw body.
func (p *Paystack) VerifyWebhookSignature(body []byte, signature string) bool {
	return VerifySignature(p.secretKey, body, signature)
}

// VerifySignature reports whether signature is the hex HMAC-SHA512 of body under secret.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	given, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(given, Sign(secret, body))
}

// Sign computes the HMAC-SHA512 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

type recipientData struct {
	RecipientCode string `json:"recipient_code"`
	Details       struct {
		AccountNumber string `json:"account_number"`
		BankName      string `json:"bank_name"`
	} `json:"details"`
}

// CreatePayoutRecipient registers and verifies a NUBAN bank account.
func (p *Paystack) CreatePayoutRecipient(ctx context.Context, req RecipientRequest) (*Recipient, error) {
	body := map[string]any{
		"type":           "nuban",
		"name":           req.Name,
		"account_number": req.AccountNumber,
		"bank_code":      req.BankCode,
		"currency":       "NGN",
	}
	var resp envelope[recipientData]
	if err := p.do(ctx, "create recipient", http.MethodPost, "/transferrecipient", body, &resp); err != nil {
		return nil, err
	}
	return &Recipient{
		RecipientCode: resp.Data.RecipientCode,
		BankName:      resp.Data.Details.BankName,
		AccountNumber: resp.Data.Details.AccountNumber,
	}, nil
}

type transferData struct {
	TransferCode string `json:"transfer_code"`
	Reference    string `json:"reference"`
	Status       string `json:"status"`
}

func (d transferData) transfer() *Transfer {
	return &Transfer{TransferCode: d.TransferCode, Reference: d.Reference, Status: TransferStatus(d.Status)}
}

// InitiateTransfer pays out from the platform balance.
func (p *Paystack) InitiateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	body := map[string]any{
		"source":    "balance",
		"amount":    ToKobo(req.Amount),
		"recipient": req.RecipientCode,
		"reason":    req.Reason,
		"reference": req.Reference,
	}
	var resp envelope[transferData]
	if err := p.do(ctx, "initiate transfer", http.MethodPost, "/transfer", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data.transfer(), nil
}

// VerifyTransfer fetches the current state of a transfer. A 404 answer is
// returned as ErrTransferNotFound.
func (p *Paystack) VerifyTransfer(ctx context.Context, reference string) (*Transfer, error) {
	var resp envelope[transferData]
	err := p.do(ctx, "verify transfer", http.MethodGet, "/transfer/verify/"+url.PathEscape(reference), nil, &resp)
	var perr *ProviderError
	if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("verify transfer %s: %s: %w", reference, perr.Message, ErrTransferNotFound)
	}
	if err != nil {
		return nil, err
	}
	return resp.Data.transfer(), nil
}
