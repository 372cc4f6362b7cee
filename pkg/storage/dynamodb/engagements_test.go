package dynamodb

import (
	"context"
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

func TestSubmitEngagement(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	campaign := models.Campaign{ID: "camp-1", OwnerID: "owner", TargetAmount: 2, CurrentClicks: 0, Status: models.CampaignActive, ExpiresAt: now.Add(time.Hour)}
	newInputs := func() (*models.Engagement, *models.Transaction) {
		engagement := &models.Engagement{ID: "eng-1", CampaignID: "camp-1", UserID: "earner", Fingerprint: "abc", Status: models.EngagementPending, EarnedAmount: 5, CreatedAt: now}
		earning := &models.Transaction{ID: "earn-1", UserID: "earner", Type: models.TransactionEngagementEarning, Amount: 5, Status: models.TransactionPending, EngagementID: "eng-1", CreatedAt: now}
		return engagement, earning
	}
	newStore := func(mockClient *mocks.DynamoDBAPI) *Store {
		return &Store{Client: mockClient, CampaignsTableName: "campaigns", EngagementsTableName: "engagements", TransactionsTableName: "transactions"}
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		getItemReturning(mockClient, campaign)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			guard := in.TransactItems[1].Put.Item["id"].(*types.AttributeValueMemberS)
			update := in.TransactItems[2].Update
			return len(in.TransactItems) == 4 &&
				guard.Value == "fingerprint#abc" &&
				update.ExpressionAttributeValues[":observed"].(*types.AttributeValueMemberN).Value == "0" &&
				update.ExpressionAttributeValues[":completed"] == nil
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		updated, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.NoError(t, err)
		assert.Equal(t, int64(1), updated.CurrentClicks)
		assert.Equal(t, models.CampaignActive, updated.Status)
		mockClient.AssertExpectations(t)
	})

	t.Run("Completes At Target", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		almost := campaign
		almost.CurrentClicks = 1
		getItemReturning(mockClient, almost)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			update := in.TransactItems[2].Update
			return update.ExpressionAttributeValues[":completed"] != nil
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		updated, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), updated.CurrentClicks)
		assert.Equal(t, models.CampaignCompleted, updated.Status)
		assert.True(t, updated.IsCompleted)
		assert.NotNil(t, updated.CompletedAt)
		mockClient.AssertExpectations(t)
	})

	t.Run("Duplicate Fingerprint", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		getItemReturning(mockClient, campaign)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionalFailure(1, 4))

		_, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.ErrorIs(t, err, storage.ErrDuplicateEngagement)
		mockClient.AssertExpectations(t)
	})

	t.Run("Retries Lost Race", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		getItemReturning(mockClient, campaign).Once()
		raced := campaign
		raced.CurrentClicks = 1
		getItemReturning(mockClient, raced).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionalFailure(2, 4)).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		updated, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.NoError(t, err)
		assert.Equal(t, models.CampaignCompleted, updated.Status)
		mockClient.AssertNumberOfCalls(t, "TransactWriteItems", 2)
		mockClient.AssertExpectations(t)
	})

	t.Run("Lost The Last Slot", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		almost := campaign
		almost.CurrentClicks = 1
		getItemReturning(mockClient, almost).Once()
		taken := campaign
		taken.CurrentClicks = 2
		taken.Status = models.CampaignCompleted
		getItemReturning(mockClient, taken).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			update := in.TransactItems[2].Update
			return update.ExpressionAttributeValues[":observed"].(*types.AttributeValueMemberN).Value == "1"
		})).Return(nil, conditionalFailure(2, 4)).Once()

		_, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.ErrorIs(t, err, storage.ErrCampaignUnavailable)
		mockClient.AssertNumberOfCalls(t, "TransactWriteItems", 1)
		mockClient.AssertExpectations(t)
	})

	t.Run("Campaign Full", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		full := campaign
		full.CurrentClicks = 2
		full.Status = models.CampaignCompleted
		getItemReturning(mockClient, full)

		_, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.ErrorIs(t, err, storage.ErrCampaignUnavailable)
		mockClient.AssertNotCalled(t, "TransactWriteItems", mock.Anything, mock.Anything)
	})

	t.Run("Keeps Losing", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := newStore(mockClient)
		engagement, earning := newInputs()

		getItemReturning(mockClient, campaign)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, conditionalFailure(2, 4))

		_, err := store.SubmitEngagement(context.Background(), engagement, earning)

		assert.ErrorIs(t, err, storage.ErrConflict)
		mockClient.AssertNumberOfCalls(t, "TransactWriteItems", submitAttempts)
	})
}

func TestGetEngagements(t *testing.T) {
	t.Run("Follows Unprocessed Keys", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		store := &Store{Client: mockClient, EngagementsTableName: "engagements"}

		unprocessed := map[string]types.KeysAndAttributes{
			"engagements": {Keys: []map[string]types.AttributeValue{idKey("eng-2")}},
		}
		mockClient.On("BatchGetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.BatchGetItemInput) bool {
			return len(in.RequestItems["engagements"].Keys) == 2
		})).Return(&dynamodb.BatchGetItemOutput{
			Responses: map[string][]map[string]types.AttributeValue{
				"engagements": {{"id": strAV("eng-1"), "status": strAV("pending")}},
			},
			UnprocessedKeys: unprocessed,
		}, nil).Once()
		mockClient.On("BatchGetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.BatchGetItemInput) bool {
			return len(in.RequestItems["engagements"].Keys) == 1
		})).Return(&dynamodb.BatchGetItemOutput{
			Responses: map[string][]map[string]types.AttributeValue{
				"engagements": {{"id": strAV("eng-2"), "status": strAV("pending")}},
			},
		}, nil).Once()

		engagements, err := store.GetEngagements(context.Background(), []string{"eng-1", "eng-2"})

		assert.NoError(t, err)
		assert.Len(t, engagements, 2)
		mockClient.AssertExpectations(t)
	})
}

func TestCountEngagementsByUser(t *testing.T) {
	mockClient := new(mocks.DynamoDBAPI)
	store := &Store{Client: mockClient, EngagementsTableName: "engagements"}

	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return in.FilterExpression == nil
	})).Return(&dynamodb.QueryOutput{Count: 10}, nil)
	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.FilterExpression) == "#status = :approved"
	})).Return(&dynamodb.QueryOutput{Count: 9}, nil)

	total, approved, err := store.CountEngagementsByUser(context.Background(), "earner")

	assert.NoError(t, err)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, int64(9), approved)
	mockClient.AssertExpectations(t)
}
