package sqlstore

import (
	"context"
	"fmt"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"gorm.io/gorm/clause"
)

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user %s", userID)
	}
	return &user, nil
}

// EnsureUser inserts the user or refreshes its profile fields.
func (s *Store) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Version == 0 {
		user.Version = 1
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "picture", "last_login_at"}),
	}).Omit("balance", "total_spent", "total_earned").Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return s.GetUser(ctx, user.ID)
}

// SetPayoutRecipient stores the user's linked payout account.
func (s *Store) SetPayoutRecipient(ctx context.Context, userID string, recipient models.PayoutRecipient) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Updates(models.User{PayoutRecipient: recipient})
	if res.Error != nil {
		return fmt.Errorf("failed to set payout recipient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}
