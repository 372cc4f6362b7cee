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

// CompleteTransaction performs the final atomic settlement of a pending transaction.
// The status transition is conditioned on the transaction still being pending,
// so a duplicate webhook or a retried queue message cannot apply the balance
// effect twice.
func (s *Store) CompleteTransaction(ctx context.Context, txID, externalReference string) (bool, error) {
	// 1. Get the current state of the transaction.
	tx, err := s.GetTransaction(ctx, txID)
	if err != nil {
		return false, err
	}
	switch tx.Status {
	case models.TransactionCompleted:
		return false, nil
	case models.TransactionFailed, models.TransactionCancelled:
		return false, fmt.Errorf("transaction %s is %s: %w", txID, tx.Status, storage.ErrTransactionNotPending)
	}

	// 2. Operation 0: flip the status; the condition is the idempotency lock.
	now := time.Now().UTC()
	expr := "SET #status = :completed, balance_applied = :true, updated_at = :now"
	values := map[string]types.AttributeValue{
		":completed": strAV(string(models.TransactionCompleted)),
		":pending":   strAV(string(models.TransactionPending)),
		":true":      boolAV(true),
		":now":       timeAV(now),
	}
	if externalReference != "" {
		expr += ", external_reference = :ref"
		values[":ref"] = strAV(externalReference)
	}
	items := []types.TransactWriteItem{{
		Update: &types.Update{
			TableName:           aws.String(s.TransactionsTableName),
			Key:                 idKey(txID),
			UpdateExpression:    aws.String(expr),
			ConditionExpression: aws.String("#status = :pending"),
			ExpressionAttributeNames: map[string]string{
				"#status": "status",
			},
			ExpressionAttributeValues: values,
		},
	}}

	// 3. Operations 1 and 2: apply the balance effect unless it was applied at creation.
	if !tx.BalanceApplied {
		tx.BalanceApplied = true
		effect, err := s.effectItems(*tx, now)
		if err != nil {
			return false, err
		}
		items = append(items, effect...)
	}

	// 4. Execute the transaction.
	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return true, nil
	}
	if !conditionFailedAt(cancellationReasons(err), 0) {
		return false, fmt.Errorf("failed to execute settlement transaction: %w", err)
	}

	// Another process settled it first.
	current, getErr := s.GetTransaction(ctx, txID)
	if getErr != nil {
		return false, getErr
	}
	if current.Status == models.TransactionCompleted {
		return false, nil
	}
	return false, fmt.Errorf("transaction %s is %s: %w", txID, current.Status, storage.ErrTransactionNotPending)
}

// FailTransaction moves a pending transaction without an applied effect to failed.
func (s *Store) FailTransaction(ctx context.Context, txID, reason string) (bool, error) {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Key:                 idKey(txID),
		UpdateExpression:    aws.String("SET #status = :failed, failure_reason = :reason, updated_at = :now"),
		ConditionExpression: aws.String("#status = :pending AND balance_applied = :false"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":failed":  strAV(string(models.TransactionFailed)),
			":pending": strAV(string(models.TransactionPending)),
			":false":   boolAV(false),
			":reason":  strAV(reason),
			":now":     timeAV(time.Now().UTC()),
		},
	})
	if err == nil {
		return true, nil
	}
	if !isConditionFailed(err) {
		return false, fmt.Errorf("failed to fail transaction: %w", err)
	}

	current, getErr := s.GetTransaction(ctx, txID)
	if getErr != nil {
		return false, getErr
	}
	if current.Status.Terminal() {
		return false, nil
	}
	return false, fmt.Errorf("transaction %s has an applied balance effect: %w", txID, storage.ErrConflict)
}

// CompensateWithdrawal fails a pending withdrawal and restores the debited balance atomically.
func (s *Store) CompensateWithdrawal(ctx context.Context, txID, reason string, needsReconciliation bool) (bool, error) {
	// 1. Get the current state of the withdrawal.
	tx, err := s.GetTransaction(ctx, txID)
	if err != nil {
		return false, err
	}
	if tx.Type != models.TransactionWithdrawal {
		return false, fmt.Errorf("transaction %s is a %s: %w", txID, tx.Type, storage.ErrConflict)
	}
	if tx.Status.Terminal() {
		return false, nil
	}

	now := time.Now().UTC()
	reversal, err := s.ledgerPut(ledger.ReversalFor(*tx, reason, now))
	if err != nil {
		return false, err
	}

	// 2. Construct the TransactWriteItems input.
	items := []types.TransactWriteItem{
		{
			// Operation 0: fail the withdrawal while its debit is still applied.
			Update: &types.Update{
				TableName: aws.String(s.TransactionsTableName),
				Key:       idKey(txID),
				UpdateExpression: aws.String("SET #status = :failed, balance_applied = :false, failure_reason = :reason, " +
					"needs_reconciliation = :recon, updated_at = :now"),
				ConditionExpression: aws.String("#status = :pending AND balance_applied = :true"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":failed":  strAV(string(models.TransactionFailed)),
					":pending": strAV(string(models.TransactionPending)),
					":false":   boolAV(false),
					":true":    boolAV(true),
					":reason":  strAV(reason),
					":recon":   boolAV(needsReconciliation),
					":now":     timeAV(now),
				},
			},
		},
		// Operation 1: re-credit the wallet.
		s.creditUpdate(tx.UserID, tx.Amount, false),
		// Operation 2: record the reversing ledger entry.
		reversal,
	}

	// 3. Execute the transaction.
	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		if conditionFailedAt(cancellationReasons(err), 0) {
			return false, nil
		}
		return false, fmt.Errorf("failed to execute withdrawal compensation: %w", err)
	}
	return true, nil
}

// FlagForReconciliation marks a transaction for manual follow-up.
func (s *Store) FlagForReconciliation(ctx context.Context, txID, reason string) error {
	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.TransactionsTableName),
		Key:                 idKey(txID),
		UpdateExpression:    aws.String("SET needs_reconciliation = :true, failure_reason = :reason, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":   boolAV(true),
			":reason": strAV(reason),
			":now":    timeAV(time.Now().UTC()),
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
		}
		return fmt.Errorf("failed to flag transaction: %w", err)
	}
	return nil
}
