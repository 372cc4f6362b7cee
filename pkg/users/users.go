// Package users serves the signed-in user's profile, history and analytics.
package users

import (
	"context"
	"strings"
	"time"

	"github.com/Dxtobi/xplus/pkg/apperrors"
	"github.com/Dxtobi/xplus/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Store is the data access the profile service needs.
type Store interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	EnsureUser(ctx context.Context, user *models.User) (*models.User, error)
	ListCampaignsByOwner(ctx context.Context, ownerID string, status models.CampaignStatus) ([]models.Campaign, error)
	CountEngagementsByUser(ctx context.Context, userID string) (total int64, approved int64, err error)
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string, txType models.TransactionType) ([]models.Transaction, error)
	ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error)
}

// Identity is what the authenticator knows about the caller.
type Identity struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// CampaignStats summarises a user's campaigns.
type CampaignStats struct {
	Total       int   `json:"total"`
	Active      int   `json:"active"`
	Completed   int   `json:"completed"`
	TotalCost   int64 `json:"total_cost"`
	TotalClicks int64 `json:"total_clicks"`
}

// Analytics is the dashboard summary of a user.
type Analytics struct {
	Balance             int64                            `json:"balance"`
	Campaigns           CampaignStats                    `json:"campaigns"`
	Engagements         int64                            `json:"engagements"`
	ApprovedEngagements int64                            `json:"approved_engagements"`
	Transactions        map[models.TransactionType]int64 `json:"transactions"`
}

// Service implements profile reads.
type Service struct {
	store Store
}

// NewService creates a users Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// EnsureUser creates the user on first sight and refreshes the login time.
func (s *Service) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	if strings.TrimSpace(id.ID) == "" {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "identity has no subject")
	}
	now := time.Now().UTC()
	user, err := s.store.EnsureUser(ctx, &models.User{
		ID:          id.ID,
		Email:       id.Email,
		Name:        id.Name,
		Picture:     id.Picture,
		CreatedAt:   now,
		LastLoginAt: now,
	})
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return user, nil
}

// GetProfile returns the user.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return user, nil
}

// Analytics gathers the user's campaign, engagement and transaction totals concurrently.
func (s *Service) Analytics(ctx context.Context, userID string) (*Analytics, error) {
	var (
		user         *models.User
		campaigns    []models.Campaign
		total        int64
		approved     int64
		transactions []models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.store.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		campaigns, err = s.store.ListCampaignsByOwner(gctx, userID, "")
		return err
	})
	g.Go(func() error {
		var err error
		total, approved, err = s.store.CountEngagementsByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		transactions, err = s.store.ListTransactionsByUser(gctx, userID, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.FromStore(err)
	}

	a := &Analytics{
		Balance:             user.Balance,
		Engagements:         total,
		ApprovedEngagements: approved,
		Transactions:        make(map[models.TransactionType]int64),
	}
	for _, c := range campaigns {
		a.Campaigns.Total++
		a.Campaigns.TotalCost += c.Cost
		a.Campaigns.TotalClicks += c.CurrentClicks
		switch c.Status {
		case models.CampaignActive:
			a.Campaigns.Active++
		case models.CampaignCompleted:
			a.Campaigns.Completed++
		}
	}
	for _, tx := range transactions {
		if tx.Status == models.TransactionCompleted {
			a.Transactions[tx.Type] += tx.Amount
		}
	}
	return a, nil
}

// ListTransactions returns the user's transactions, newest first. An empty type matches all.
func (s *Service) ListTransactions(ctx context.Context, userID string, txType models.TransactionType) ([]models.Transaction, error) {
	switch txType {
	case "", models.TransactionDeposit, models.TransactionWithdrawal, models.TransactionCampaignPayment,
		models.TransactionEngagementEarning, models.TransactionRefund:
	default:
		return nil, apperrors.Validation("unknown transaction type %q", txType)
	}
	txs, err := s.store.ListTransactionsByUser(ctx, userID, txType)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return txs, nil
}

// GetTransaction returns one of the user's transactions. Other users'
// transactions are reported as not found.
func (s *Service) GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	if tx.UserID != userID {
		return nil, apperrors.New(apperrors.ErrNotFound, "transaction %s not found", txID)
	}
	return tx, nil
}

// ListLedgerEntries returns up to limit of the user's ledger entries, newest first.
func (s *Service) ListLedgerEntries(ctx context.Context, userID string, limit int32) ([]models.LedgerEntry, error) {
	entries, err := s.store.ListLedgerEntries(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return entries, nil
}
