package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	fingerprintPrefix = "fingerprint#"
	submitAttempts    = 3
	batchGetLimit     = 100
)

// fingerprintGuard occupies the engagements table key derived from an
// engagement fingerprint, so a conditional put enforces uniqueness.
type fingerprintGuard struct {
	ID           string `dynamodbav:"id"`
	EngagementID string `dynamodbav:"engagement_id"`
}

// SubmitEngagement records the engagement and advances the campaign in one transaction.
// The campaign update is conditioned on the click count observed before the
// write, so the completion rule is decided against an exact count; a lost race
// is retried against a fresh read.
func (s *Store) SubmitEngagement(ctx context.Context, engagement *models.Engagement, earning *models.Transaction) (*models.Campaign, error) {
	// 1. Build the puts shared by every attempt.
	engagementPut, err := newItemPut(s.EngagementsTableName, engagement)
	if err != nil {
		return nil, err
	}
	guardPut, err := newItemPut(s.EngagementsTableName, fingerprintGuard{
		ID:           fingerprintPrefix + engagement.Fingerprint,
		EngagementID: engagement.ID,
	})
	if err != nil {
		return nil, err
	}
	earningPut, err := newItemPut(s.TransactionsTableName, earning)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < submitAttempts; attempt++ {
		// 2. Get the current state of the campaign.
		campaign, err := s.GetCampaign(ctx, engagement.CampaignID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, storage.ErrCampaignUnavailable
			}
			return nil, err
		}
		if !campaign.AcceptsEngagements(engagement.CreatedAt) {
			return nil, storage.ErrCampaignUnavailable
		}

		// 3. Construct the TransactWriteItems input.
		update := progressUpdate(s.CampaignsTableName, campaign, engagement.CreatedAt)
		_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{engagementPut, guardPut, update, earningPut},
		})
		if err == nil {
			advance(campaign, engagement.CreatedAt)
			return campaign, nil
		}

		reasons := cancellationReasons(err)
		switch {
		case conditionFailedAt(reasons, 0), conditionFailedAt(reasons, 1):
			return nil, storage.ErrDuplicateEngagement
		case conditionFailedAt(reasons, 2):
			continue
		default:
			return nil, fmt.Errorf("failed to execute engagement submission: %w", err)
		}
	}
	return nil, fmt.Errorf("campaign %s progress kept changing: %w", engagement.CampaignID, storage.ErrConflict)
}

// progressUpdate increments the counters of campaign and, when this engagement
// reaches the target, completes it in the same update.
func progressUpdate(table string, campaign *models.Campaign, now time.Time) types.TransactWriteItem {
	expr := "SET current_clicks = current_clicks + :one, unique_users = unique_users + :one, updated_at = :now"
	values := map[string]types.AttributeValue{
		":one":      numAV(1),
		":now":      timeAV(now),
		":active":   strAV(string(models.CampaignActive)),
		":observed": numAV(campaign.CurrentClicks),
	}
	if campaign.CurrentClicks+1 >= campaign.TargetAmount {
		expr += ", #status = :completed, is_completed = :true, completed_at = :now"
		values[":completed"] = strAV(string(models.CampaignCompleted))
		values[":true"] = boolAV(true)
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:        aws.String(table),
			Key:              idKey(campaign.ID),
			UpdateExpression: aws.String(expr),
			ConditionExpression: aws.String(
				"#status = :active AND current_clicks = :observed AND expires_at > :now"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: values,
		},
	}
}

// advance mirrors progressUpdate on the in-memory campaign.
func advance(campaign *models.Campaign, now time.Time) {
	campaign.CurrentClicks++
	campaign.UniqueUsers++
	campaign.UpdatedAt = now
	if campaign.CurrentClicks >= campaign.TargetAmount {
		campaign.Status = models.CampaignCompleted
		campaign.IsCompleted = true
		completedAt := now
		campaign.CompletedAt = &completedAt
	}
}

// GetEngagement retrieves an engagement by ID.
func (s *Store) GetEngagement(ctx context.Context, engagementID string) (*models.Engagement, error) {
	var engagement models.Engagement
	if err := s.getItem(ctx, s.EngagementsTableName, engagementID, "engagement", &engagement); err != nil {
		return nil, err
	}
	return &engagement, nil
}

// GetEngagements retrieves the engagements that exist among engagementIDs.
func (s *Store) GetEngagements(ctx context.Context, engagementIDs []string) ([]models.Engagement, error) {
	var engagements []models.Engagement
	for start := 0; start < len(engagementIDs); start += batchGetLimit {
		end := min(start+batchGetLimit, len(engagementIDs))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range engagementIDs[start:end] {
			keys = append(keys, idKey(id))
		}

		request := map[string]types.KeysAndAttributes{
			s.EngagementsTableName: {Keys: keys, ConsistentRead: aws.Bool(true)},
		}
		for len(request) > 0 {
			result, err := s.Client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("failed to batch get engagements: %w", err)
			}
			var page []models.Engagement
			if err := attributevalue.UnmarshalListOfMaps(result.Responses[s.EngagementsTableName], &page); err != nil {
				return nil, fmt.Errorf("failed to unmarshal engagements: %w", err)
			}
			engagements = append(engagements, page...)
			request = result.UnprocessedKeys
		}
	}
	return engagements, nil
}

// FindEngagementByFingerprint resolves the fingerprint guard to its engagement.
func (s *Store) FindEngagementByFingerprint(ctx context.Context, fingerprint string) (*models.Engagement, error) {
	var guard fingerprintGuard
	if err := s.getItem(ctx, s.EngagementsTableName, fingerprintPrefix+fingerprint, "engagement fingerprint", &guard); err != nil {
		return nil, err
	}
	return s.GetEngagement(ctx, guard.EngagementID)
}

// ListEngagementsByUser lists an earner's engagements, newest first.
func (s *Store) ListEngagementsByUser(ctx context.Context, userID string, status models.EngagementStatus) ([]models.Engagement, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.EngagementsTableName),
		IndexName:              aws.String(userCreatedAtIndex),
		KeyConditionExpression: aws.String("user_id = :user"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": strAV(userID),
		},
		ScanIndexForward: aws.Bool(false),
	}
	if status != "" {
		input.FilterExpression = aws.String("#status = :status")
		input.ExpressionAttributeNames = map[string]string{"#status": "status"}
		input.ExpressionAttributeValues[":status"] = strAV(string(status))
	}

	var engagements []models.Engagement
	if err := s.queryAll(ctx, input, 0, &engagements); err != nil {
		return nil, err
	}
	return engagements, nil
}

// ListPendingEngagementsByOwner lists pending engagements awaiting a creator's review.
func (s *Store) ListPendingEngagementsByOwner(ctx context.Context, ownerID string) ([]models.Engagement, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.EngagementsTableName),
		IndexName:              aws.String(engagementOwnerIndex),
		KeyConditionExpression: aws.String("campaign_owner_id = :owner"),
		FilterExpression:       aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner":   strAV(ownerID),
			":pending": strAV(string(models.EngagementPending)),
		},
		ScanIndexForward: aws.Bool(false),
	}

	var engagements []models.Engagement
	if err := s.queryAll(ctx, input, 0, &engagements); err != nil {
		return nil, err
	}
	return engagements, nil
}

// ListPendingEngagementsBefore lists pending engagements created before cutoff, oldest first.
func (s *Store) ListPendingEngagementsBefore(ctx context.Context, cutoff time.Time) ([]models.Engagement, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.EngagementsTableName),
		IndexName:              aws.String(statusCreatedAtIndex),
		KeyConditionExpression: aws.String("#status = :pending AND created_at < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": strAV(string(models.EngagementPending)),
			":cutoff":  timeAV(cutoff),
		},
		ScanIndexForward: aws.Bool(true),
	}

	var engagements []models.Engagement
	if err := s.queryAll(ctx, input, 0, &engagements); err != nil {
		return nil, err
	}
	return engagements, nil
}

// CountEngagementsByUser returns an earner's total and approved engagement counts.
func (s *Store) CountEngagementsByUser(ctx context.Context, userID string) (int64, int64, error) {
	total, err := s.countAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.EngagementsTableName),
		IndexName:              aws.String(userCreatedAtIndex),
		KeyConditionExpression: aws.String("user_id = :user"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": strAV(userID),
		},
	})
	if err != nil {
		return 0, 0, err
	}

	approved, err := s.countAll(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.EngagementsTableName),
		IndexName:              aws.String(userCreatedAtIndex),
		KeyConditionExpression: aws.String("user_id = :user"),
		FilterExpression:       aws.String("#status = :approved"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user":     strAV(userID),
			":approved": strAV(string(models.EngagementApproved)),
		},
	})
	if err != nil {
		return 0, 0, err
	}
	return total, approved, nil
}
