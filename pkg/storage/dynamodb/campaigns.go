package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CreateCampaign atomically debits the owner, creates the campaign and records its payment.
func (s *Store) CreateCampaign(ctx context.Context, campaign *models.Campaign, payment *models.Transaction) error {
	payment.BalanceApplied = true

	// 1. Operation 0 and 1: debit the owner and record the ledger entry.
	items, err := s.effectItems(*payment, payment.CreatedAt)
	if err != nil {
		return err
	}

	// 2. Operation 2 and 3: create the campaign and the payment record.
	campaignPut, err := newItemPut(s.CampaignsTableName, campaign)
	if err != nil {
		return err
	}
	paymentPut, err := newItemPut(s.TransactionsTableName, payment)
	if err != nil {
		return err
	}
	items = append(items, campaignPut, paymentPut)

	// 3. Execute the transaction.
	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if conditionFailedAt(cancellationReasons(err), 0) {
			return storage.ErrInsufficientFunds
		}
		return fmt.Errorf("failed to execute campaign creation: %w", err)
	}
	return nil
}

// GetCampaign retrieves a campaign by ID.
func (s *Store) GetCampaign(ctx context.Context, campaignID string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.getItem(ctx, s.CampaignsTableName, campaignID, "campaign", &campaign); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// UpdateCampaign persists title, description and status of an open campaign.
func (s *Store) UpdateCampaign(ctx context.Context, campaign *models.Campaign) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.CampaignsTableName),
		Key:                 idKey(campaign.ID),
		UpdateExpression:    aws.String("SET title = :title, description = :description, #status = :status, updated_at = :now"),
		ConditionExpression: aws.String("#status IN (:active, :paused)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":title":       strAV(campaign.Title),
			":description": strAV(campaign.Description),
			":status":      strAV(string(campaign.Status)),
			":now":         timeAV(campaign.UpdatedAt),
			":active":      strAV(string(models.CampaignActive)),
			":paused":      strAV(string(models.CampaignPaused)),
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("campaign %s is no longer editable: %w", campaign.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return nil
}

// CancelCampaign deletes an untouched campaign and refunds its owner atomically.
func (s *Store) CancelCampaign(ctx context.Context, campaign *models.Campaign, refund *models.Transaction) error {
	refund.BalanceApplied = true

	// Operation 0: delete the campaign while it has no engagements.
	items := []types.TransactWriteItem{{
		Delete: &types.Delete{
			TableName:           aws.String(s.CampaignsTableName),
			Key:                 idKey(campaign.ID),
			ConditionExpression: aws.String("current_clicks = :zero AND #status IN (:active, :paused)"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":zero":   numAV(0),
				":active": strAV(string(models.CampaignActive)),
				":paused": strAV(string(models.CampaignPaused)),
			},
		},
	}}

	// Operations 1 to 3: credit the owner, record the ledger entry and the refund.
	effect, err := s.effectItems(*refund, refund.CreatedAt)
	if err != nil {
		return err
	}
	refundPut, err := newItemPut(s.TransactionsTableName, refund)
	if err != nil {
		return err
	}
	items = append(items, effect...)
	items = append(items, refundPut)

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return nil
	}
	if !conditionFailedAt(cancellationReasons(err), 0) {
		return fmt.Errorf("failed to execute campaign cancellation: %w", err)
	}

	current, getErr := s.GetCampaign(ctx, campaign.ID)
	if getErr != nil {
		if errors.Is(getErr, storage.ErrNotFound) {
			return getErr
		}
		return fmt.Errorf("failed to re-read campaign after cancellation conflict: %w", getErr)
	}
	if current.CurrentClicks > 0 {
		return storage.ErrCampaignHasEngagements
	}
	return fmt.Errorf("campaign %s is %s: %w", campaign.ID, current.Status, storage.ErrConflict)
}

// ListCampaignsByOwner lists an owner's campaigns, newest first.
func (s *Store) ListCampaignsByOwner(ctx context.Context, ownerID string, status models.CampaignStatus) ([]models.Campaign, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.CampaignsTableName),
		IndexName:              aws.String(campaignOwnerIndex),
		KeyConditionExpression: aws.String("owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": strAV(ownerID),
		},
		ScanIndexForward: aws.Bool(false),
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues[":status"] = strAV(string(status))
	}

	var campaigns []models.Campaign
	if err := s.queryAll(ctx, input, 0, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// ListActiveCampaigns lists every active campaign, newest first.
func (s *Store) ListActiveCampaigns(ctx context.Context) ([]models.Campaign, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.CampaignsTableName),
		IndexName:              aws.String(statusCreatedAtIndex),
		KeyConditionExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": strAV(string(models.CampaignActive)),
		},
		ScanIndexForward: aws.Bool(false),
	}

	var campaigns []models.Campaign
	if err := s.queryAll(ctx, input, 0, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}
