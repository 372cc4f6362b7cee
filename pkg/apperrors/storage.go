package apperrors

import (
	"errors"

	"github.com/Dxtobi/xplus/pkg/storage"
)

var storageReasons = []struct {
	err      error
	sentinel *Error
}{
	{storage.ErrNotFound, ErrNotFound},
	{storage.ErrInsufficientFunds, ErrInsufficientFunds},
	{storage.ErrDuplicateEngagement, ErrDuplicateSubmission},
	{storage.ErrCampaignUnavailable, ErrCampaignUnavailable},
	{storage.ErrCampaignHasEngagements, ErrCampaignHasEngagements},
	{storage.ErrAlreadyReviewed, ErrAlreadyReviewed},
	{storage.ErrTransactionNotPending, ErrConflict},
	{storage.ErrConflict, ErrConflict},
}

// FromStore classifies an error returned by a store. Already classified
// errors pass through unchanged and unknown ones become internal.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, r := range storageReasons {
		if errors.Is(err, r.err) {
			return Wrap(r.sentinel, err)
		}
	}
	return Internal(err)
}
