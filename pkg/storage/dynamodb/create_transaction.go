package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CreateTransaction stores a new transaction without any balance effect.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	txAV, err := marshalMap(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Item:                txAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("transaction %s already exists: %w", tx.ID, storage.ErrConflict)
		}
		return fmt.Errorf("failed to create transaction in DynamoDB: %w", err)
	}
	return nil
}

// ReserveWithdrawal atomically debits the user and records a pending withdrawal.
func (s *Store) ReserveWithdrawal(ctx context.Context, tx *models.Transaction) error {
	tx.Status = models.TransactionPending
	tx.BalanceApplied = true

	// 1. Operation 0 and 1: debit the wallet and record the ledger entry.
	items, err := s.effectItems(*tx, tx.CreatedAt)
	if err != nil {
		return err
	}

	// 2. Operation 2: create the withdrawal record.
	txPut, err := newItemPut(s.TransactionsTableName, tx)
	if err != nil {
		return err
	}
	items = append(items, txPut)

	// 3. Execute the transaction.
	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if conditionFailedAt(cancellationReasons(err), 0) {
			return storage.ErrInsufficientFunds
		}
		return fmt.Errorf("failed to execute withdrawal reservation: %w", err)
	}
	return nil
}

// SetExternalReference records the gateway's reference for a transaction.
func (s *Store) SetExternalReference(ctx context.Context, txID, reference string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Key:                 idKey(txID),
		UpdateExpression:    aws.String("SET external_reference = :ref, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": strAV(reference),
			":now": timeAV(time.Now().UTC()),
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to set external reference: %w", err)
	}
	return nil
}
