package websockets

import (
	"context"
	"log/slog"

	"github.com/Dxtobi/xplus/pkg/models"
)

// UserGetter reads the current wallet of a user.
type UserGetter interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// BalanceNotifier pushes a user's current wallet to their clients after a balance change.
type BalanceNotifier struct {
	users     UserGetter
	publisher Publisher
	logger    *slog.Logger
}

// NewBalanceNotifier creates a BalanceNotifier.
func NewBalanceNotifier(users UserGetter, publisher Publisher, logger *slog.Logger) *BalanceNotifier {
	return &BalanceNotifier{users: users, publisher: publisher, logger: logger}
}

// NotifyBalanceChanged publishes a walletUpdate. Failures are logged, never returned.
func (n *BalanceNotifier) NotifyBalanceChanged(ctx context.Context, userID string) {
	user, err := n.users.GetUser(ctx, userID)
	if err != nil {
		n.logger.Error("failed to load wallet for update", "user_id", userID, "error", err)
		return
	}
	msg := Message{
		Type: MessageTypeWalletUpdate,
		Payload: WalletUpdatePayload{
			UserID:      user.ID,
			Balance:     user.Balance,
			TotalEarned: user.TotalEarned,
			TotalSpent:  user.TotalSpent,
		},
	}
	if err := n.publisher.Publish(ctx, userID, msg); err != nil {
		n.logger.Error("failed to publish wallet update", "user_id", userID, "error", err)
	}
}
