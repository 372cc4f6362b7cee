package mapping

import (
	"github.com/Dxtobi/xplus/pkg/api"
	"github.com/Dxtobi/xplus/pkg/campaigns"
	"github.com/Dxtobi/xplus/pkg/engagements"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/paging"
	"github.com/Dxtobi/xplus/pkg/payments"
	"github.com/Dxtobi/xplus/pkg/payouts"
	"github.com/Dxtobi/xplus/pkg/users"
)

// ToApiPage converts a page of domain items with convert.
func ToApiPage[T, U any](page paging.Page[T], convert func(*T) U) api.Page[U] {
	items := make([]U, len(page.Items))
	for i := range page.Items {
		items[i] = convert(&page.Items[i])
	}
	return api.Page[U]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}
}

// ToPagingRequest converts optional page and limit query parameters.
func ToPagingRequest(page, limit *int) paging.Request {
	var req paging.Request
	if page != nil {
		req.Page = *page
	}
	if limit != nil {
		req.Limit = *limit
	}
	return req.Normalize()
}

// ToApiUser converts a domain User to an API User. The recipient code stays server-side.
func ToApiUser(user *models.User) *api.User {
	out := &api.User{
		Id:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Picture:     user.Picture,
		Balance:     user.Balance,
		TotalSpent:  user.TotalSpent,
		TotalEarned: user.TotalEarned,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	}
	if user.HasPayoutAccount() {
		out.PayoutAccount = &api.PayoutAccount{
			BankName:           user.PayoutRecipient.BankName,
			AccountNumberLast4: user.PayoutRecipient.AccountNumberLast4,
		}
	}
	return out
}

// ToApiPayoutAccount converts a stored payout recipient.
func ToApiPayoutAccount(r *models.PayoutRecipient) *api.PayoutAccount {
	return &api.PayoutAccount{BankName: r.BankName, AccountNumberLast4: r.AccountNumberLast4}
}

// ToDomainNewCampaign converts an API NewCampaign to the lifecycle manager's request.
func ToDomainNewCampaign(in *api.NewCampaign) campaigns.NewCampaign {
	return campaigns.NewCampaign{
		Title:        in.Title,
		Link:         in.Link,
		Platform:     deref(in.Platform),
		ActionType:   in.ActionType,
		Category:     deref(in.Category),
		Description:  deref(in.Description),
		Tags:         in.Tags,
		TargetAmount: in.TargetAmount,
	}
}

// ToDomainCampaignUpdate converts an API CampaignPatch.
func ToDomainCampaignUpdate(in *api.CampaignPatch) campaigns.CampaignUpdate {
	update := campaigns.CampaignUpdate{Title: in.Title, Description: in.Description}
	if in.Status != nil {
		status := models.CampaignStatus(*in.Status)
		update.Status = &status
	}
	return update
}

// ToApiCampaign converts a domain Campaign to an API Campaign.
func ToApiCampaign(c *models.Campaign) api.Campaign {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return api.Campaign{
		Id:             c.ID,
		OwnerId:        c.OwnerID,
		Title:          c.Title,
		Link:           c.Link,
		Platform:       c.Platform,
		ActionType:     c.ActionType,
		Category:       c.Category,
		Description:    c.Description,
		Tags:           tags,
		TargetAmount:   c.TargetAmount,
		CurrentClicks:  c.CurrentClicks,
		ApprovedClicks: c.ApprovedClicks,
		UniqueUsers:    c.UniqueUsers,
		CostPerAction:  c.CostPerAction,
		Cost:           c.Cost,
		Status:         string(c.Status),
		IsCompleted:    c.IsCompleted,
		CompletedAt:    c.CompletedAt,
		ExpiresAt:      c.ExpiresAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToDomainProof converts an API NewEngagement. Request metadata is filled in by the handler.
func ToDomainProof(in *api.NewEngagement) engagements.Proof {
	return engagements.Proof{ProofUsername: in.ProofUsername, DeviceInfo: deref(in.DeviceInfo)}
}

// ToApiEngagement converts a domain Engagement to an API Engagement.
func ToApiEngagement(e *models.Engagement) api.Engagement {
	return api.Engagement{
		Id:              e.ID,
		CampaignId:      e.CampaignID,
		UserId:          e.UserID,
		ActionType:      e.ActionType,
		ProofUsername:   e.ProofUsername,
		Country:         e.Location.Country,
		City:            e.Location.City,
		Status:          string(e.Status),
		EarnedAmount:    e.EarnedAmount,
		RejectionReason: e.RejectionReason,
		ReviewNote:      e.ReviewNote,
		CreatedAt:       e.CreatedAt,
		ReviewedAt:      e.ReviewedAt,
	}
}

// ToApiPendingEngagement converts a review queue entry.
func ToApiPendingEngagement(p *engagements.PendingEngagement) api.PendingEngagement {
	return api.PendingEngagement{
		Engagement:    ToApiEngagement(&p.Engagement),
		CampaignTitle: p.CampaignTitle,
		Platform:      p.Platform,
		ProofLink:     p.ProofLink,
	}
}

// ToApiReviewResult converts the engagements settled by a review.
func ToApiReviewResult(reviewed []models.Engagement) *api.ReviewResult {
	out := &api.ReviewResult{Reviewed: len(reviewed), Engagements: make([]api.Engagement, len(reviewed))}
	for i := range reviewed {
		out.Engagements[i] = ToApiEngagement(&reviewed[i])
	}
	return out
}

// ToApiDeposit converts an initialized deposit.
func ToApiDeposit(d *payments.Deposit) *api.Deposit {
	return &api.Deposit{
		TransactionId:    d.TransactionID,
		AuthorizationUrl: d.AuthorizationURL,
		Reference:        d.Reference,
		BaseAmount:       d.BaseAmount,
		Fee:              d.Fee,
		ChargedAmount:    d.ChargedAmount,
	}
}

// ToApiEligibility converts a withdrawal eligibility report.
func ToApiEligibility(e *payouts.Eligibility) *api.Eligibility {
	return &api.Eligibility{
		Balance:             e.Balance,
		TotalEngagements:    e.TotalEngagements,
		ApprovedEngagements: e.ApprovedEngagements,
		ApprovalRate:        e.ApprovalRate,
		RequiredRate:        e.RequiredRate,
		MinWithdrawal:       e.MinWithdrawal,
		HasPayoutAccount:    e.HasPayoutAccount,
		Eligible:            e.Eligible,
	}
}

// ToApiTransaction converts a domain Transaction model to an API Transaction model.
func ToApiTransaction(tx *models.Transaction) *api.Transaction {
	out := &api.Transaction{
		Id:            tx.ID,
		Type:          string(tx.Type),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Status:        string(tx.Status),
		CampaignId:    tx.CampaignID,
		EngagementId:  tx.EngagementID,
		Description:   tx.Description,
		PaymentMethod: tx.PaymentMethod,
		Reference:     tx.ExternalReference,
		FailureReason: tx.FailureReason,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
	if d := tx.Details.Deposit; d != nil {
		fee := d.Fee
		out.Fee = &fee
	}
	return out
}

// ToApiLedgerEntry converts a domain LedgerEntry model to an API LedgerEntry model.
func ToApiLedgerEntry(entry *models.LedgerEntry) *api.LedgerEntry {
	return &api.LedgerEntry{
		EntryId:       &entry.EntryID,
		TransactionId: &entry.TransactionID,
		Debit:         entry.Debit,
		Credit:        entry.Credit,
		Description:   entry.Description,
		Timestamp:     &entry.Timestamp,
	}
}

// ToApiAnalytics converts the dashboard summary.
func ToApiAnalytics(a *users.Analytics) *api.Analytics {
	out := &api.Analytics{
		Balance: a.Balance,
		Campaigns: api.CampaignStats{
			Total:       a.Campaigns.Total,
			Active:      a.Campaigns.Active,
			Completed:   a.Campaigns.Completed,
			TotalCost:   a.Campaigns.TotalCost,
			TotalClicks: a.Campaigns.TotalClicks,
		},
		Engagements:         a.Engagements,
		ApprovedEngagements: a.ApprovedEngagements,
		Transactions:        make(map[string]int64, len(a.Transactions)),
	}
	for txType, total := range a.Transactions {
		out.Transactions[string(txType)] = total
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
