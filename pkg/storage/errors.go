package storage

import "errors"

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientFunds is returned when a user's balance cannot cover a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrDuplicateEngagement is returned when an engagement with the same fingerprint already exists.
var ErrDuplicateEngagement = errors.New("duplicate engagement")

// ErrCampaignUnavailable is returned when a campaign no longer accepts engagements.
var ErrCampaignUnavailable = errors.New("campaign not accepting engagements")

// ErrCampaignHasEngagements is returned when cancelling a campaign that already has progress.
var ErrCampaignHasEngagements = errors.New("campaign has engagements")

// ErrAlreadyReviewed is returned when an engagement is no longer pending at write time.
var ErrAlreadyReviewed = errors.New("engagement already reviewed")

// ErrTransactionNotPending is returned when a transition requires a pending transaction.
var ErrTransactionNotPending = errors.New("transaction not pending")

// ErrConflict is returned when a conditional write lost a race that the caller may retry.
var ErrConflict = errors.New("conflicting update")
