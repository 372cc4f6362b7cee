package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// GetUser retrieves a user from DynamoDB by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.getItem(ctx, s.UsersTableName, userID, "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser upserts the profile fields and initialises the wallet on first sight.
func (s *Store) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	result, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.UsersTableName),
		Key:       idKey(user.ID),
		UpdateExpression: aws.String("SET email = :email, #name = :name, picture = :picture, last_login_at = :login, " +
			"created_at = if_not_exists(created_at, :created), balance = if_not_exists(balance, :zero), " +
			"total_spent = if_not_exists(total_spent, :zero), total_earned = if_not_exists(total_earned, :zero), " +
			"version = if_not_exists(version, :one)"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email":   strAV(user.Email),
			":name":    strAV(user.Name),
			":picture": strAV(user.Picture),
			":login":   timeAV(user.LastLoginAt),
			":created": timeAV(createdAt),
			":zero":    numAV(0),
			":one":     numAV(1),
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	var stored models.User
	if err := attributevalue.UnmarshalMap(result.Attributes, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &stored, nil
}

// SetPayoutRecipient stores the user's linked payout account.
func (s *Store) SetPayoutRecipient(ctx context.Context, userID string, recipient models.PayoutRecipient) error {
	recipientAV, err := marshal(recipient)
	if err != nil {
		return fmt.Errorf("failed to marshal payout recipient: %w", err)
	}
	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.UsersTableName),
		Key:                       idKey(userID),
		UpdateExpression:          aws.String("SET payout_recipient = :recipient"),
		ConditionExpression:       aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":recipient": recipientAV},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to set payout recipient: %w", err)
	}
	return nil
}
