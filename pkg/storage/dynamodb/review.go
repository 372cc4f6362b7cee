package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/ledger"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const reviewAttempts = 3

// ApplyReview settles a review batch in one TransactWriteItems call.
// DynamoDB rejects a transaction touching the same item twice, so credits are
// summed per earner and approvals per campaign before building the request.
func (s *Store) ApplyReview(ctx context.Context, items []storage.ReviewItem) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) > storage.MaxReviewBatch {
		return fmt.Errorf("review batch of %d exceeds %d items", len(items), storage.MaxReviewBatch)
	}

	var writes []types.TransactWriteItem
	credits := map[string]int64{}
	approvals := map[string]int64{}
	var userOrder, campaignOrder []string
	var settledAt time.Time

	// 1. Engagement and earning transitions, each conditioned on still being pending.
	for _, item := range items {
		engagementUpdate, err := s.engagementDecision(item.Engagement)
		if err != nil {
			return err
		}
		writes = append(writes, engagementUpdate)

		if item.Earning == nil {
			continue
		}
		earningWrite, err := s.earningDecision(item)
		if err != nil {
			return err
		}
		writes = append(writes, earningWrite)

		if item.Engagement.Status != models.EngagementApproved {
			continue
		}
		entry, err := s.ledgerPut(ledger.EntryFor(*item.Earning, item.Earning.UpdatedAt))
		if err != nil {
			return err
		}
		writes = append(writes, entry)

		if _, ok := credits[item.Earning.UserID]; !ok {
			userOrder = append(userOrder, item.Earning.UserID)
		}
		credits[item.Earning.UserID] += item.Earning.Amount
		if _, ok := approvals[item.Engagement.CampaignID]; !ok {
			campaignOrder = append(campaignOrder, item.Engagement.CampaignID)
		}
		approvals[item.Engagement.CampaignID]++
		settledAt = item.Earning.UpdatedAt
	}
	// A condition failure in any of the writes so far means a concurrent review.
	guarded := len(writes)

	// 2. Aggregated wallet credits.
	for _, userID := range userOrder {
		writes = append(writes, s.creditUpdate(userID, credits[userID], true))
	}
	base := len(writes)

	for attempt := 0; attempt < reviewAttempts; attempt++ {
		// 3. Aggregated campaign approval counters, re-running the completion rule
		// against a fresh read of each campaign.
		batch := writes[:base:base]
		for _, campaignID := range campaignOrder {
			update, err := s.approvalUpdate(ctx, campaignID, approvals[campaignID], settledAt)
			if err != nil {
				return err
			}
			batch = append(batch, update)
		}

		// 4. Execute the transaction.
		_, err := s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: batch})
		if err == nil {
			return nil
		}
		reasons := cancellationReasons(err)
		for i := 0; i < guarded; i++ {
			if conditionFailedAt(reasons, i) {
				return storage.ErrAlreadyReviewed
			}
		}
		stale := false
		for i := base; i < len(batch); i++ {
			stale = stale || conditionFailedAt(reasons, i)
		}
		if !stale {
			return fmt.Errorf("failed to execute review settlement: %w", err)
		}
	}
	return fmt.Errorf("campaign status kept changing during review: %w", storage.ErrConflict)
}

// approvalUpdate adds n approvals to a campaign. A campaign that is still
// active with every click submitted is completed in the same update.
func (s *Store) approvalUpdate(ctx context.Context, campaignID string, n int64, now time.Time) (types.TransactWriteItem, error) {
	campaign, err := s.GetCampaign(ctx, campaignID)
	if err != nil {
		return types.TransactWriteItem{}, err
	}

	update := &types.Update{
		TableName:           aws.String(s.CampaignsTableName),
		Key:                 idKey(campaignID),
		UpdateExpression:    aws.String("SET approved_clicks = approved_clicks + :n, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":   numAV(n),
			":now": timeAV(now),
		},
	}
	if campaign.Status == models.CampaignActive && campaign.CurrentClicks >= campaign.TargetAmount {
		update.UpdateExpression = aws.String(
			"SET approved_clicks = approved_clicks + :n, updated_at = :now, #status = :completed, is_completed = :true, completed_at = :now")
		update.ConditionExpression = aws.String("#status = :active AND current_clicks >= target_amount")
		update.ExpressionAttributeNames = map[string]string{"#status": "status"}
		update.ExpressionAttributeValues[":active"] = strAV(string(models.CampaignActive))
		update.ExpressionAttributeValues[":completed"] = strAV(string(models.CampaignCompleted))
		update.ExpressionAttributeValues[":true"] = boolAV(true)
	}
	return types.TransactWriteItem{Update: update}, nil
}

func (s *Store) engagementDecision(e models.Engagement) (types.TransactWriteItem, error) {
	values := map[string]types.AttributeValue{
		":status":  strAV(string(e.Status)),
		":pending": strAV(string(models.EngagementPending)),
		":reason":  strAV(e.RejectionReason),
		":note":    strAV(e.ReviewNote),
	}
	expr := "SET #status = :status, rejection_reason = :reason, review_note = :note"
	if e.ReviewedAt != nil {
		expr += ", reviewed_at = :reviewed"
		values[":reviewed"] = timeAV(*e.ReviewedAt)
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:           aws.String(s.EngagementsTableName),
			Key:                 idKey(e.ID),
			UpdateExpression:    aws.String(expr),
			ConditionExpression: aws.String("#status = :pending"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: values,
		},
	}, nil
}

func (s *Store) earningDecision(item storage.ReviewItem) (types.TransactWriteItem, error) {
	earning := item.Earning
	if item.NewEarning {
		return newItemPut(s.TransactionsTableName, earning)
	}

	detailsAV, err := marshal(earning.Details)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal earning details: %w", err)
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(s.TransactionsTableName),
			Key:       idKey(earning.ID),
			UpdateExpression: aws.String(
				"SET #status = :status, amount = :amount, balance_applied = :applied, details = :details, updated_at = :now"),
			ConditionExpression: aws.String("#status = :pending AND balance_applied = :false"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":status":  strAV(string(earning.Status)),
				":amount":  numAV(earning.Amount),
				":applied": boolAV(earning.BalanceApplied),
				":details": detailsAV,
				":now":     timeAV(earning.UpdatedAt),
				":pending": strAV(string(models.TransactionPending)),
				":false":   boolAV(false),
			},
		},
	}, nil
}
