package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// connectionTTL matches the API Gateway limit on WebSocket connection duration.
const connectionTTL = 2 * time.Hour

// wsConnection is a row of the connections table. ExpiresAt is the table's TTL attribute.
type wsConnection struct {
	ConnectionID string    `dynamodbav:"connection_id"`
	UserID       string    `dynamodbav:"user_id"`
	ConnectedAt  time.Time `dynamodbav:"connected_at"`
	ExpiresAt    int64     `dynamodbav:"expires_at"`
}

// AddConnection records an open connection of a user.
func (s *Store) AddConnection(ctx context.Context, userID, connectionID string) error {
	now := time.Now().UTC()
	item, err := marshalMap(wsConnection{
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  now,
		ExpiresAt:    now.Add(connectionTTL).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.ConnectionsTableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save connection %s: %w", connectionID, err)
	}
	return nil
}

// RemoveConnection forgets a connection. Removing an unknown connection is not an error.
func (s *Store) RemoveConnection(ctx context.Context, connectionID string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.ConnectionsTableName),
		Key:       map[string]types.AttributeValue{"connection_id": strAV(connectionID)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete connection %s: %w", connectionID, err)
	}
	return nil
}

// GetConnections returns the unexpired connection IDs of a user. Expired rows
// linger until DynamoDB's TTL sweep and are filtered out here.
func (s *Store) GetConnections(ctx context.Context, userID string) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.ConnectionsTableName),
		IndexName:              aws.String(connectionsUserIDIndex),
		KeyConditionExpression: aws.String("user_id = :user"),
		FilterExpression:       aws.String("expires_at > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": strAV(userID),
			":now":  numAV(time.Now().Unix()),
		},
	}

	var rows []wsConnection
	if err := s.queryAll(ctx, input, 0, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ConnectionID
	}
	return ids, nil
}
