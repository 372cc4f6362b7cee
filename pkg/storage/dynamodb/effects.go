package dynamodb

import (
	"fmt"
	"time"

	"github.com/Dxtobi/xplus/pkg/ledger"
	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// balanceUpdate builds the wallet update applying tx's balance effect.
// Debits are conditioned on the balance covering them.
func (s *Store) balanceUpdate(tx models.Transaction) types.TransactWriteItem {
	effect := ledger.Effect(tx)
	expr := "SET balance = balance + :effect, version = version + :one"
	values := map[string]types.AttributeValue{
		":effect": numAV(effect),
		":one":    numAV(1),
	}
	switch tx.Type {
	case models.TransactionEngagementEarning:
		expr += ", total_earned = total_earned + :amount"
		values[":amount"] = numAV(tx.Amount)
	case models.TransactionCampaignPayment:
		expr += ", total_spent = total_spent + :amount"
		values[":amount"] = numAV(tx.Amount)
	case models.TransactionRefund:
		expr += ", total_spent = total_spent - :amount"
		values[":amount"] = numAV(tx.Amount)
	}

	condition := "attribute_exists(id)"
	if effect < 0 {
		condition += " AND balance >= :debit"
		values[":debit"] = numAV(-effect)
	}

	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:                 aws.String(s.UsersTableName),
			Key:                       idKey(tx.UserID),
			UpdateExpression:          aws.String(expr),
			ConditionExpression:       aws.String(condition),
			ExpressionAttributeValues: values,
		},
	}
}

// creditUpdate builds a wallet update crediting amount, optionally counting it as earned.
func (s *Store) creditUpdate(userID string, amount int64, earned bool) types.TransactWriteItem {
	expr := "SET balance = balance + :amount, version = version + :one"
	if earned {
		expr += ", total_earned = total_earned + :amount"
	}
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:           aws.String(s.UsersTableName),
			Key:                 idKey(userID),
			UpdateExpression:    aws.String(expr),
			ConditionExpression: aws.String("attribute_exists(id)"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":amount": numAV(amount),
				":one":    numAV(1),
			},
		},
	}
}

// ledgerPut builds the put of a new ledger entry.
func (s *Store) ledgerPut(entry models.LedgerEntry) (types.TransactWriteItem, error) {
	entryAV, err := marshalMap(entry)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(s.LedgerTableName),
			Item:                entryAV,
			ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
		},
	}, nil
}

// newItemPut builds the put of a record that must not exist yet.
func newItemPut(table string, record any) (types.TransactWriteItem, error) {
	item, err := marshalMap(record)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal %s item: %w", table, err)
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		},
	}, nil
}

// effectItems builds the balance update and ledger entry of tx.
func (s *Store) effectItems(tx models.Transaction, now time.Time) ([]types.TransactWriteItem, error) {
	entry, err := s.ledgerPut(ledger.EntryFor(tx, now))
	if err != nil {
		return nil, err
	}
	return []types.TransactWriteItem{s.balanceUpdate(tx), entry}, nil
}
