package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ListTransactionsByUser retrieves a user's transactions, newest first.
func (s *Store) ListTransactionsByUser(ctx context.Context, userID string, txType models.TransactionType) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(userCreatedAtIndex),
		KeyConditionExpression: aws.String("user_id = :user"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": strAV(userID),
		},
		ScanIndexForward: aws.Bool(false),
	}
	if txType != "" {
		input.FilterExpression = aws.String("#type = :type")
		input.ExpressionAttributeNames = map[string]string{"#type": "type"}
		input.ExpressionAttributeValues[":type"] = strAV(string(txType))
	}

	var txs []models.Transaction
	if err := s.queryAll(ctx, input, 0, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ListStalePendingWithdrawals retrieves withdrawals still pending since before cutoff.
func (s *Store) ListStalePendingWithdrawals(ctx context.Context, cutoff time.Time) ([]models.Transaction, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(statusCreatedAtIndex),
		KeyConditionExpression: aws.String("#status = :pending AND created_at < :cutoff"),
		FilterExpression:       aws.String("#type = :withdrawal"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
			"#type":   "type",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending":    strAV(string(models.TransactionPending)),
			":cutoff":     timeAV(cutoff),
			":withdrawal": strAV(string(models.TransactionWithdrawal)),
		},
		ScanIndexForward: aws.Bool(true),
	}

	var txs []models.Transaction
	if err := s.queryAll(ctx, input, 0, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ListTransactionsNeedingReconciliation scans for flagged transactions.
func (s *Store) ListTransactionsNeedingReconciliation(ctx context.Context) ([]models.Transaction, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.TransactionsTableName),
		FilterExpression: aws.String("needs_reconciliation = :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": boolAV(true),
		},
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan for flagged transactions: %w", err)
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	var txs []models.Transaction
	if err := attributevalue.UnmarshalListOfMaps(items, &txs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flagged transactions: %w", err)
	}
	return txs, nil
}

// ListLedgerEntries retrieves an account's most recent ledger entries.
func (s *Store) ListLedgerEntries(ctx context.Context, accountID string, limit int32) ([]models.LedgerEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.LedgerTableName),
		IndexName:              aws.String(accountTimestampIndex),
		KeyConditionExpression: aws.String("account_id = :account"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":account": strAV(accountID),
		},
		ScanIndexForward: aws.Bool(false), // Sort by timestamp in descending order
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	var entries []models.LedgerEntry
	if err := s.queryAll(ctx, input, int(limit), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
