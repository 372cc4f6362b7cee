package models

import (
	"time"
)

// TransactionType defines what a transaction moves money for.
type TransactionType string

const (
	TransactionDeposit           TransactionType = "deposit"
	TransactionWithdrawal        TransactionType = "withdrawal"
	TransactionCampaignPayment   TransactionType = "campaign_payment"
	TransactionEngagementEarning TransactionType = "engagement_earning"
	TransactionRefund            TransactionType = "refund"
)

// TransactionStatus defines the possible states of a transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
	TransactionCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionFailed || s == TransactionCancelled
}

// CampaignStatus defines the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// EngagementStatus defines the review states of an engagement.
type EngagementStatus string

const (
	EngagementPending  EngagementStatus = "pending"
	EngagementApproved EngagementStatus = "approved"
	EngagementRejected EngagementStatus = "rejected"
)

// PayoutRecipient is the external payout account linked to a user.
type PayoutRecipient struct {
	RecipientCode      string `json:"recipient_code,omitempty" dynamodbav:"recipient_code,omitempty" gorm:"size:64"`
	BankName           string `json:"bank_name,omitempty" dynamodbav:"bank_name,omitempty" gorm:"size:128"`
	AccountNumberLast4 string `json:"account_number_last4,omitempty" dynamodbav:"account_number_last4,omitempty" gorm:"size:4"`
}

// User represents a marketplace account and its wallet.
type User struct {
	ID              string          `json:"id" dynamodbav:"id" gorm:"primaryKey;size:64"`
	Email           string          `json:"email" dynamodbav:"email" gorm:"size:255"`
	Name            string          `json:"name" dynamodbav:"name" gorm:"size:255"`
	Picture         string          `json:"picture,omitempty" dynamodbav:"picture,omitempty" gorm:"size:512"`
	Balance         int64           `json:"balance" dynamodbav:"balance" gorm:"not null;default:0"`
	TotalSpent      int64           `json:"total_spent" dynamodbav:"total_spent" gorm:"not null;default:0"`
	TotalEarned     int64           `json:"total_earned" dynamodbav:"total_earned" gorm:"not null;default:0"`
	PayoutRecipient PayoutRecipient `json:"payout_recipient" dynamodbav:"payout_recipient" gorm:"embedded;embeddedPrefix:payout_"`
	Version         int64           `json:"version" dynamodbav:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time       `json:"created_at" dynamodbav:"created_at"`
	LastLoginAt     time.Time       `json:"last_login_at" dynamodbav:"last_login_at"`
}

// HasPayoutAccount reports whether a payout recipient has been linked.
func (u *User) HasPayoutAccount() bool {
	return u.PayoutRecipient.RecipientCode != ""
}

// Campaign is a funded request for a bounded number of social actions.
type Campaign struct {
	ID             string         `json:"id" dynamodbav:"id" gorm:"primaryKey;size:64"`
	OwnerID        string         `json:"owner_id" dynamodbav:"owner_id" gorm:"index;size:64;not null"`
	Title          string         `json:"title" dynamodbav:"title" gorm:"size:200;not null"`
	Link           string         `json:"link" dynamodbav:"link" gorm:"size:2048;not null"`
	Platform       string         `json:"platform" dynamodbav:"platform" gorm:"size:32;index"`
	ActionType     string         `json:"action_type" dynamodbav:"action_type" gorm:"size:32;index"`
	Category       string         `json:"category" dynamodbav:"category" gorm:"size:32"`
	Description    string         `json:"description" dynamodbav:"description" gorm:"size:500"`
	Tags           []string       `json:"tags,omitempty" dynamodbav:"tags,omitempty" gorm:"serializer:json"`
	TargetAmount   int64          `json:"target_amount" dynamodbav:"target_amount" gorm:"not null"`
	CurrentClicks  int64          `json:"current_clicks" dynamodbav:"current_clicks" gorm:"not null;default:0"`
	ApprovedClicks int64          `json:"approved_clicks" dynamodbav:"approved_clicks" gorm:"not null;default:0"`
	UniqueUsers    int64          `json:"unique_users" dynamodbav:"unique_users" gorm:"not null;default:0"`
	CostPerAction  int64          `json:"cost_per_action" dynamodbav:"cost_per_action" gorm:"not null"`
	Cost           int64          `json:"cost" dynamodbav:"cost" gorm:"not null"`
	Status         CampaignStatus `json:"status" dynamodbav:"status" gorm:"size:16;index;not null"`
	IsCompleted    bool           `json:"is_completed" dynamodbav:"is_completed"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
	ExpiresAt      time.Time      `json:"expires_at" dynamodbav:"expires_at" gorm:"index"`
	CreatedAt      time.Time      `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" dynamodbav:"updated_at"`
}

// AcceptsEngagements reports whether new engagements may be recorded at the given time.
func (c *Campaign) AcceptsEngagements(now time.Time) bool {
	return c.Status == CampaignActive && c.CurrentClicks < c.TargetAmount && now.Before(c.ExpiresAt)
}

// Location is a best-effort GeoIP result.
type Location struct {
	Country string `json:"country,omitempty" dynamodbav:"country,omitempty" gorm:"size:64"`
	City    string `json:"city,omitempty" dynamodbav:"city,omitempty" gorm:"size:64"`
}

// Engagement is an earner's proof-of-action submission against a campaign.
type Engagement struct {
	ID              string           `json:"id" dynamodbav:"id" gorm:"primaryKey;size:64"`
	CampaignID      string           `json:"campaign_id" dynamodbav:"campaign_id" gorm:"index;size:64;not null"`
	CampaignOwnerID string           `json:"campaign_owner_id" dynamodbav:"campaign_owner_id" gorm:"index;size:64;not null"`
	UserID          string           `json:"user_id" dynamodbav:"user_id" gorm:"index;size:64;not null"`
	ActionType      string           `json:"action_type" dynamodbav:"action_type" gorm:"size:32"`
	ProofUsername   string           `json:"proof_username" dynamodbav:"proof_username" gorm:"size:128;not null"`
	IPAddress       string           `json:"ip_address" dynamodbav:"ip_address" gorm:"size:64;not null"`
	UserAgent       string           `json:"user_agent" dynamodbav:"user_agent" gorm:"size:512"`
	Referrer        string           `json:"referrer,omitempty" dynamodbav:"referrer,omitempty" gorm:"size:512"`
	DeviceInfo      string           `json:"device_info,omitempty" dynamodbav:"device_info,omitempty" gorm:"size:512"`
	Location        Location         `json:"location" dynamodbav:"location" gorm:"embedded;embeddedPrefix:location_"`
	Fingerprint     string           `json:"-" dynamodbav:"fingerprint" gorm:"uniqueIndex;size:64;not null"`
	Status          EngagementStatus `json:"status" dynamodbav:"status" gorm:"size:16;index;not null"`
	EarnedAmount    int64            `json:"earned_amount" dynamodbav:"earned_amount" gorm:"not null"`
	RejectionReason string           `json:"rejection_reason,omitempty" dynamodbav:"rejection_reason,omitempty" gorm:"size:500"`
	ReviewNote      string           `json:"review_note,omitempty" dynamodbav:"review_note,omitempty" gorm:"size:255"`
	CreatedAt       time.Time        `json:"created_at" dynamodbav:"created_at" gorm:"index"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty" dynamodbav:"reviewed_at,omitempty"`
}

// EarningID is the ID of the earning transaction of an engagement.
func EarningID(engagementID string) string {
	return "earning-" + engagementID
}

// Transaction is an immutable ledger row describing a money movement.
type Transaction struct {
	ID                  string             `json:"id" dynamodbav:"id" gorm:"primaryKey;size:64"`
	UserID              string             `json:"user_id" dynamodbav:"user_id" gorm:"index;size:64;not null"`
	Type                TransactionType    `json:"type" dynamodbav:"type" gorm:"size:32;index;not null"`
	Amount              int64              `json:"amount" dynamodbav:"amount" gorm:"not null"`
	Currency            string             `json:"currency" dynamodbav:"currency" gorm:"size:3;not null;default:'NGN'"`
	Status              TransactionStatus  `json:"status" dynamodbav:"status" gorm:"size:16;index;not null"`
	CampaignID          string             `json:"campaign_id,omitempty" dynamodbav:"campaign_id,omitempty" gorm:"size:64;index"`
	EngagementID        string             `json:"engagement_id,omitempty" dynamodbav:"engagement_id,omitempty" gorm:"size:64;index"`
	Description         string             `json:"description" dynamodbav:"description" gorm:"size:255"`
	PaymentMethod       string             `json:"payment_method" dynamodbav:"payment_method" gorm:"size:32"`
	ExternalReference   string             `json:"external_reference,omitempty" dynamodbav:"external_reference,omitempty" gorm:"size:128"`
	BalanceApplied      bool               `json:"balance_applied" dynamodbav:"balance_applied"`
	FailureReason       string             `json:"failure_reason,omitempty" dynamodbav:"failure_reason,omitempty" gorm:"size:255"`
	NeedsReconciliation bool               `json:"needs_reconciliation,omitempty" dynamodbav:"needs_reconciliation,omitempty" gorm:"index"`
	Details             TransactionDetails `json:"details" dynamodbav:"details" gorm:"type:text"`
	CreatedAt           time.Time          `json:"created_at" dynamodbav:"created_at" gorm:"index"`
	UpdatedAt           time.Time          `json:"updated_at" dynamodbav:"updated_at"`
}

// LedgerEntry represents a single applied balance effect.
type LedgerEntry struct {
	EntryID       string    `json:"entry_id" dynamodbav:"entry_id" gorm:"primaryKey;size:64"`
	TransactionID string    `json:"transaction_id" dynamodbav:"transaction_id" gorm:"index;size:64;not null"`
	AccountID     string    `json:"account_id" dynamodbav:"account_id" gorm:"index;size:64;not null"`
	Debit         int64     `json:"debit,omitempty" dynamodbav:"debit,omitempty"`
	Credit        int64     `json:"credit,omitempty" dynamodbav:"credit,omitempty"`
	Description   string    `json:"description" dynamodbav:"description" gorm:"size:255"`
	Timestamp     time.Time `json:"timestamp" dynamodbav:"timestamp" gorm:"index"`
}
