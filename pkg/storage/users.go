package storage

import (
	"context"

	"github.com/Dxtobi/xplus/pkg/models"
)

// UserStore defines the interface for managing users and their wallets.
type UserStore interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// EnsureUser creates the user on first sight, or refreshes the profile
	// fields and LastLoginAt of an existing one. Balances are never touched.
	EnsureUser(ctx context.Context, user *models.User) (*models.User, error)

	// SetPayoutRecipient stores the user's linked payout account.
	SetPayoutRecipient(ctx context.Context, userID string, recipient models.PayoutRecipient) error
}
