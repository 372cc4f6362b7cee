package dynamodb

import (
	"context"
	"errors"
	"testing"

	"github.com/Dxtobi/xplus/pkg/models"
	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/Dxtobi/xplus/pkg/storage/dynamodb/mocks"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func getItemReturning(mockClient *mocks.DynamoDBAPI, record any) *mock.Call {
	item, _ := attributevalue.MarshalMap(record)
	return mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)
}

func newSettlementStore(mockClient *mocks.DynamoDBAPI) *Store {
	return &Store{Client: mockClient, UsersTableName: "users", TransactionsTableName: "transactions", LedgerTableName: "ledger"}
}

func TestCompleteTransaction(t *testing.T) {
	txID := uuid.New().String()
	deposit := models.Transaction{ID: txID, UserID: "user1", Type: models.TransactionDeposit, Amount: 1000, Status: models.TransactionPending}

	t.Run("Success Applies Effect", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		getItemReturning(mockClient, deposit).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			credit := in.TransactItems[1].Update
			return len(in.TransactItems) == 3 &&
				aws.ToString(in.TransactItems[0].Update.ConditionExpression) == "#status = :pending" &&
				credit.ExpressionAttributeValues[":effect"].(*types.AttributeValueMemberN).Value == "1000"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		settled, err := store.CompleteTransaction(context.Background(), txID, "ref-1")

		assert.NoError(t, err)
		assert.True(t, settled)
		mockClient.AssertExpectations(t)
	})

	t.Run("Reserved Withdrawal Has No Second Effect", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		withdrawal := models.Transaction{ID: txID, UserID: "user1", Type: models.TransactionWithdrawal, Amount: 6000, Status: models.TransactionPending, BalanceApplied: true}
		getItemReturning(mockClient, withdrawal).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			return len(in.TransactItems) == 1
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		settled, err := store.CompleteTransaction(context.Background(), txID, "TRF_1")

		assert.NoError(t, err)
		assert.True(t, settled)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Completed", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		completed := deposit
		completed.Status = models.TransactionCompleted
		completed.BalanceApplied = true
		getItemReturning(mockClient, completed).Once()

		settled, err := store.CompleteTransaction(context.Background(), txID, "")

		assert.NoError(t, err)
		assert.False(t, settled)
		mockClient.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
		mockClient.AssertExpectations(t)
	})

	t.Run("Lost Race", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		getItemReturning(mockClient, deposit).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionalFailure(0, 3)).Once()
		completed := deposit
		completed.Status = models.TransactionCompleted
		getItemReturning(mockClient, completed).Once()

		settled, err := store.CompleteTransaction(context.Background(), txID, "")

		assert.NoError(t, err)
		assert.False(t, settled)
		mockClient.AssertExpectations(t)
	})

	t.Run("Failed Transaction", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		failed := deposit
		failed.Status = models.TransactionFailed
		getItemReturning(mockClient, failed).Once()

		_, err := store.CompleteTransaction(context.Background(), txID, "")

		assert.ErrorIs(t, err, storage.ErrTransactionNotPending)
		mockClient.AssertExpectations(t)
	})

	t.Run("Transaction Fails", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		getItemReturning(mockClient, deposit).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, errors.New("transaction failed")).Once()

		settled, err := store.CompleteTransaction(context.Background(), txID, "")

		assert.Error(t, err)
		assert.False(t, settled)
		assert.Contains(t, err.Error(), "failed to execute settlement transaction")
		mockClient.AssertExpectations(t)
	})
}

func TestFailTransaction(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		mockClient.On("UpdateItem", mock.Anything, mock.AnythingOfType("*dynamodb.UpdateItemInput")).Return(&dynamodb.UpdateItemOutput{}, nil)

		failed, err := store.FailTransaction(context.Background(), "tx-1", "charge.failed")

		assert.NoError(t, err)
		assert.True(t, failed)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Terminal", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})
		getItemReturning(mockClient, models.Transaction{ID: "tx-1", Status: models.TransactionCompleted})

		failed, err := store.FailTransaction(context.Background(), "tx-1", "charge.failed")

		assert.NoError(t, err)
		assert.False(t, failed)
		mockClient.AssertExpectations(t)
	})
}

func TestCompensateWithdrawal(t *testing.T) {
	withdrawal := models.Transaction{ID: "w-1", UserID: "user1", Type: models.TransactionWithdrawal, Amount: 6000, Status: models.TransactionPending, BalanceApplied: true}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		getItemReturning(mockClient, withdrawal).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			recon := in.TransactItems[0].Update.ExpressionAttributeValues[":recon"].(*types.AttributeValueMemberBOOL)
			credit := in.TransactItems[1].Update.ExpressionAttributeValues[":amount"].(*types.AttributeValueMemberN)
			return len(in.TransactItems) == 3 && recon.Value && credit.Value == "6000"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		done, err := store.CompensateWithdrawal(context.Background(), "w-1", "gateway timeout", true)

		assert.NoError(t, err)
		assert.True(t, done)
		mockClient.AssertExpectations(t)
	})

	t.Run("Already Terminal", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		done := withdrawal
		done.Status = models.TransactionCompleted
		getItemReturning(mockClient, done).Once()

		compensated, err := store.CompensateWithdrawal(context.Background(), "w-1", "transfer.failed", false)

		assert.NoError(t, err)
		assert.False(t, compensated)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not A Withdrawal", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newSettlementStore(mockClient)

		deposit := withdrawal
		deposit.Type = models.TransactionDeposit
		getItemReturning(mockClient, deposit).Once()

		_, err := store.CompensateWithdrawal(context.Background(), "w-1", "transfer.failed", false)

		assert.ErrorIs(t, err, storage.ErrConflict)
		mockClient.AssertExpectations(t)
	})
}
