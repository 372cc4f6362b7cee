package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DepositDetails carries the charge breakdown of a deposit.
type DepositDetails struct {
	BaseAmount    int64 `json:"base_amount" dynamodbav:"base_amount"`
	Fee           int64 `json:"fee" dynamodbav:"fee"`
	ChargedAmount int64 `json:"charged_amount" dynamodbav:"charged_amount"`
}

// WithdrawalDetails carries the payout destination of a withdrawal.
type WithdrawalDetails struct {
	RecipientCode string `json:"recipient_code" dynamodbav:"recipient_code"`
	BankName      string `json:"bank_name,omitempty" dynamodbav:"bank_name,omitempty"`
	TransferCode  string `json:"transfer_code,omitempty" dynamodbav:"transfer_code,omitempty"`
}

// EarningDetails carries review metadata for an engagement earning.
type EarningDetails struct {
	ReviewNote string `json:"review_note,omitempty" dynamodbav:"review_note,omitempty"`
}

// TransactionDetails is a tagged variant: at most one member is set and it
// must match the transaction type.
type TransactionDetails struct {
	Deposit    *DepositDetails    `json:"deposit,omitempty" dynamodbav:"deposit,omitempty"`
	Withdrawal *WithdrawalDetails `json:"withdrawal,omitempty" dynamodbav:"withdrawal,omitempty"`
	Earning    *EarningDetails    `json:"earning,omitempty" dynamodbav:"earning,omitempty"`
}

// Validate checks that the populated variant agrees with the transaction type.
func (d TransactionDetails) Validate(t TransactionType) error {
	set := 0
	if d.Deposit != nil {
		set++
		if t != TransactionDeposit {
			return fmt.Errorf("deposit details on %s transaction", t)
		}
	}
	if d.Withdrawal != nil {
		set++
		if t != TransactionWithdrawal {
			return fmt.Errorf("withdrawal details on %s transaction", t)
		}
	}
	if d.Earning != nil {
		set++
		if t != TransactionEngagementEarning {
			return fmt.Errorf("earning details on %s transaction", t)
		}
	}
	if set > 1 {
		return fmt.Errorf("transaction details carry %d variants", set)
	}
	return nil
}

// Value implements driver.Valuer for SQL storage.
func (d TransactionDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction details: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner for SQL storage.
func (d *TransactionDetails) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*d = TransactionDetails{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported transaction details type %T", value)
	}
	if len(raw) == 0 {
		*d = TransactionDetails{}
		return nil
	}
	return json.Unmarshal(raw, d)
}
