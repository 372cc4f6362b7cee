// Package api defines the request and response bodies of the HTTP API and
// the server interface the handlers implement.
package api

import "time"

// Error is the body of every non-2xx response.
type Error struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// PayoutAccount is the masked payout destination of a user.
type PayoutAccount struct {
	BankName           string `json:"bank_name,omitempty"`
	AccountNumberLast4 string `json:"account_number_last4"`
}

// User is the signed-in user's profile and wallet.
type User struct {
	Id            string         `json:"id"`
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	Picture       string         `json:"picture,omitempty"`
	Balance       int64          `json:"balance"`
	TotalSpent    int64          `json:"total_spent"`
	TotalEarned   int64          `json:"total_earned"`
	PayoutAccount *PayoutAccount `json:"payout_account,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	LastLoginAt   time.Time      `json:"last_login_at"`
}

// NewCampaign is the body of a campaign creation request.
type NewCampaign struct {
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Platform     *string  `json:"platform,omitempty"`
	ActionType   string   `json:"action_type"`
	Category     *string  `json:"category,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	TargetAmount int64    `json:"target_amount"`
}

// CampaignPatch is the body of a campaign update. Absent fields are unchanged.
type CampaignPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Campaign is a campaign as shown to its owner and to earners.
type Campaign struct {
	Id             string     `json:"id"`
	OwnerId        string     `json:"owner_id"`
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	Platform       string     `json:"platform"`
	ActionType     string     `json:"action_type"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	Tags           []string   `json:"tags"`
	TargetAmount   int64      `json:"target_amount"`
	CurrentClicks  int64      `json:"current_clicks"`
	ApprovedClicks int64      `json:"approved_clicks"`
	UniqueUsers    int64      `json:"unique_users"`
	CostPerAction  int64      `json:"cost_per_action"`
	Cost           int64      `json:"cost"`
	Status         string     `json:"status"`
	IsCompleted    bool       `json:"is_completed"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewEngagement is the proof an earner submits for a campaign.
type NewEngagement struct {
	ProofUsername string  `json:"proof_username"`
	DeviceInfo    *string `json:"device_info,omitempty"`
}

// Engagement is a submitted engagement. Request metadata is never exposed.
type Engagement struct {
	Id              string     `json:"id"`
	CampaignId      string     `json:"campaign_id"`
	UserId          string     `json:"user_id"`
	ActionType      string     `json:"action_type"`
	ProofUsername   string     `json:"proof_username"`
	Country         string     `json:"country,omitempty"`
	City            string     `json:"city,omitempty"`
	Status          string     `json:"status"`
	EarnedAmount    int64      `json:"earned_amount"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewNote      string     `json:"review_note,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

// PendingEngagement is an entry of the creator review queue.
type PendingEngagement struct {
	Engagement
	CampaignTitle string `json:"campaign_title"`
	Platform      string `json:"platform"`
	ProofLink     string `json:"proof_link"`
}

// ReviewRequest approves or rejects a batch of engagements.
type ReviewRequest struct {
	EngagementIds []string `json:"engagement_ids"`
	Decision      string   `json:"decision"`
	Reason        *string  `json:"reason,omitempty"`
}

// ReviewResult lists the engagements a review settled.
type ReviewResult struct {
	Reviewed    int          `json:"reviewed"`
	Engagements []Engagement `json:"engagements"`
}

// DepositRequest starts a deposit of Amount naira before fees.
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit tells the client where to pay.
type Deposit struct {
	TransactionId    string `json:"transaction_id"`
	AuthorizationUrl string `json:"authorization_url"`
	Reference        string `json:"reference"`
	BaseAmount       int64  `json:"base_amount"`
	Fee              int64  `json:"fee"`
	ChargedAmount    int64  `json:"charged_amount"`
}

// RecipientRequest links a bank account for payouts.
type RecipientRequest struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
}

// WithdrawRequest moves Amount naira to the linked payout account.
type WithdrawRequest struct {
	Amount int64 `json:"amount"`
}

// Eligibility reports whether the user may withdraw and why not.
type Eligibility struct {
	Balance             int64   `json:"balance"`
	TotalEngagements    int64   `json:"total_engagements"`
	ApprovedEngagements int64   `json:"approved_engagements"`
	ApprovalRate        float64 `json:"approval_rate"`
	RequiredRate        float64 `json:"required_rate"`
	MinWithdrawal       int64   `json:"min_withdrawal"`
	HasPayoutAccount    bool    `json:"has_payout_account"`
	Eligible            bool    `json:"eligible"`
}

// Transaction is a money movement in the user's history.
type Transaction struct {
	Id            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CampaignId    string    `json:"campaign_id,omitempty"`
	EngagementId  string    `json:"engagement_id,omitempty"`
	Description   string    `json:"description"`
	PaymentMethod string    `json:"payment_method"`
	Reference     string    `json:"reference,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Fee           *int64    `json:"fee,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LedgerEntry is one applied balance effect.
type LedgerEntry struct {
	EntryId       *string    `json:"entry_id,omitempty"`
	TransactionId *string    `json:"transaction_id,omitempty"`
	Debit         int64      `json:"debit"`
	Credit        int64      `json:"credit"`
	Description   string     `json:"description"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

// CampaignStats summarises the user's campaigns.
type CampaignStats struct {
	Total       int   `json:"total"`
	Active      int   `json:"active"`
	Completed   int   `json:"completed"`
	TotalCost   int64 `json:"total_cost"`
	TotalClicks int64 `json:"total_clicks"`
}

// Analytics is the dashboard summary of the user.
type Analytics struct {
	Balance             int64            `json:"balance"`
	Campaigns           CampaignStats    `json:"campaigns"`
	Engagements         int64            `json:"engagements"`
	ApprovedEngagements int64            `json:"approved_engagements"`
	Transactions        map[string]int64 `json:"transactions"`
}

// ListCampaignsParams defines parameters for ListCampaigns.
type ListCampaignsParams struct {
	Status *string `form:"status,omitempty" json:"status,omitempty"`
	Page   *int    `form:"page,omitempty" json:"page,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// ListAvailableCampaignsParams defines parameters for ListAvailableCampaigns.
type ListAvailableCampaignsParams struct {
	Platform   *string `form:"platform,omitempty" json:"platform,omitempty"`
	ActionType *string `form:"action_type,omitempty" json:"action_type,omitempty"`
	Category   *string `form:"category,omitempty" json:"category,omitempty"`
	Page       *int    `form:"page,omitempty" json:"page,omitempty"`
	Limit      *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// ListEngagementsParams defines parameters for ListEngagements.
type ListEngagementsParams struct {
	Status *string `form:"status,omitempty" json:"status,omitempty"`
	Page   *int    `form:"page,omitempty" json:"page,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// ListPendingEngagementsParams defines parameters for ListPendingEngagements.
type ListPendingEngagementsParams struct {
	Page  *int `form:"page,omitempty" json:"page,omitempty"`
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// ListTransactionsParams defines parameters for ListTransactions.
type ListTransactionsParams struct {
	Type *string `form:"type,omitempty" json:"type,omitempty"`
}

// ListLedgerEntriesParams defines parameters for ListLedgerEntries.
type ListLedgerEntriesParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}
