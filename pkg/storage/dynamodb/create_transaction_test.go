package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/Dxtobi/xplus/pkg/storage/dynamodb/mocks"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func conditionalFailure(failedIndex, total int) error {
	reasons := make([]types.CancellationReason, total)
	for i := range reasons {
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
	}
	reasons[failedIndex] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func TestCreateTransaction(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tx := &models.Transaction{ID: "tx-1", UserID: "user1", Type: models.TransactionDeposit, Amount: 1000, Status: models.TransactionPending, CreatedAt: now}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
			return aws.ToString(in.ConditionExpression) == "attribute_not_exists(id)"
		})).Return(&dynamodb.PutItemOutput{}, nil)

		err := store.CreateTransaction(context.Background(), tx)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Exists", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		err := store.CreateTransaction(context.Background(), tx)

		assert.ErrorIs(t, err, storage.ErrConflict)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, TransactionsTableName: "transactions"}

		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("put failed"))

		err := store.CreateTransaction(context.Background(), tx)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create transaction in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestReserveWithdrawal(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	newTx := func() *models.Transaction {
		return &models.Transaction{ID: "w-1", UserID: "user1", Type: models.TransactionWithdrawal, Amount: 6000, CreatedAt: now}
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, UsersTableName: "users", TransactionsTableName: "transactions", LedgerTableName: "ledger"}

		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			debit := in.TransactItems[0].Update
			return len(in.TransactItems) == 3 &&
				aws.ToString(debit.ConditionExpression) == "attribute_exists(id) AND balance >= :debit" &&
				aws.ToString(in.TransactItems[1].Put.TableName) == "ledger" &&
				aws.ToString(in.TransactItems[2].Put.TableName) == "transactions"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		tx := newTx()
		err := store.ReserveWithdrawal(context.Background(), tx)

		assert.NoError(t, err)
		assert.Equal(t, models.TransactionPending, tx.Status)
		assert.True(t, tx.BalanceApplied)
		mockClient.AssertExpectations(t)
	})

	t.Run("Insufficient Funds", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, UsersTableName: "users", TransactionsTableName: "transactions", LedgerTableName: "ledger"}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionalFailure(0, 3))

		err := store.ReserveWithdrawal(context.Background(), newTx())

		assert.ErrorIs(t, err, storage.ErrInsufficientFunds)
		mockClient.AssertExpectations(t)
	})

	t.Run("Transaction Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, UsersTableName: "users", TransactionsTableName: "transactions", LedgerTableName: "ledger"}

		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

		err := store.ReserveWithdrawal(context.Background(), newTx())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to execute withdrawal reservation")
		mockClient.AssertExpectations(t)
	})
}
