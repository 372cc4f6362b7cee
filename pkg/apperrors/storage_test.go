package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func TestFromStore(t *testing.T) {
	t.Run("Maps Sentinels", func(t *testing.T) {
		err := FromStore(fmt.Errorf("engagement abc: %w", storage.ErrAlreadyReviewed))

		assert.ErrorIs(t, err, ErrAlreadyReviewed)
		assert.ErrorIs(t, err, storage.ErrAlreadyReviewed)
		assert.ErrorIs(t, FromStore(storage.ErrDuplicateEngagement), ErrDuplicateSubmission)
	})

	t.Run("Keeps Classified Errors", func(t *testing.T) {
		err := FromStore(fmt.Errorf("withdraw: %w", ErrBelowMinimum))

		assert.ErrorIs(t, err, ErrBelowMinimum)
	})

	t.Run("Unknown Is Internal", func(t *testing.T) {
		assert.ErrorIs(t, FromStore(errors.New("disk full")), ErrInternal)
		assert.NoError(t, FromStore(nil))
	})
}
