package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dxtobi/xplus/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// TableNames holds the DynamoDB table of every record type.
type TableNames struct {
	Users        string
	Campaigns    string
	Engagements  string
	Transactions string
	Ledger       string
	Connections  string
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client                DynamoDBAPI
	UsersTableName        string
	CampaignsTableName    string
	EngagementsTableName  string
	TransactionsTableName string
	LedgerTableName       string
	ConnectionsTableName  string
}

// New creates a new Store.
func New(client DynamoDBAPI, tables TableNames) *Store {
	return &Store{
		Client:                client,
		UsersTableName:        tables.Users,
		CampaignsTableName:    tables.Campaigns,
		EngagementsTableName:  tables.Engagements,
		TransactionsTableName: tables.Transactions,
		LedgerTableName:       tables.Ledger,
		ConnectionsTableName:  tables.Connections,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)
var _ storage.WebSocketManager = (*Store)(nil)

const (
	campaignOwnerIndex     = "owner_id-created_at-index"
	statusCreatedAtIndex   = "status-created_at-index"
	engagementOwnerIndex   = "campaign_owner_id-created_at-index"
	userCreatedAtIndex     = "user_id-created_at-index"
	accountTimestampIndex  = "account_id-timestamp-index"
	connectionsUserIDIndex = "user_id-index"

	conditionalCheckFailed = "ConditionalCheckFailed"
)

func strAV(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func numAV(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func boolAV(v bool) types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: v}
}

// timeLayout is RFC 3339 with a fixed-width fraction, so stored times in UTC
// compare correctly as strings in key and filter conditions.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timeAV encodes a time the same way marshalMap does.
func timeAV(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(timeLayout)}
}

func withTimeLayout(o *attributevalue.EncoderOptions) {
	o.EncodeTime = func(t time.Time) (types.AttributeValue, error) {
		return timeAV(t), nil
	}
}

func marshalMap(in any) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMapWithOptions(in, withTimeLayout)
}

func marshal(in any) (types.AttributeValue, error) {
	return attributevalue.MarshalWithOptions(in, withTimeLayout)
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": strAV(id)}
}

// cancellationReasons extracts the per-item reasons of a cancelled transaction.
func cancellationReasons(err error) []types.CancellationReason {
	var txc *types.TransactionCanceledException
	if errors.As(err, &txc) {
		return txc.CancellationReasons
	}
	return nil
}

// conditionFailedAt reports whether the condition of item i caused the cancellation.
func conditionFailedAt(reasons []types.CancellationReason, i int) bool {
	return i < len(reasons) && reasons[i].Code != nil && *reasons[i].Code == conditionalCheckFailed
}

func isConditionFailed(err error) bool {
	var condCheckFailed *types.ConditionalCheckFailedException
	return errors.As(err, &condCheckFailed)
}

// getItem fetches a single item by id into out.
func (s *Store) getItem(ctx context.Context, table, id, what string, out any) error {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s from DynamoDB: %w", what, err)
	}
	if result.Item == nil {
		return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return nil
}

// queryAll follows LastEvaluatedKey until the query is exhausted or limit items were read.
func (s *Store) queryAll(ctx context.Context, input *dynamodb.QueryInput, limit int, out any) error {
	var items []map[string]types.AttributeValue
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", aws.ToString(input.TableName), err)
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 || (limit > 0 && len(items) >= limit) {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query results: %w", err)
	}
	return nil
}

// countAll sums the count of every page of a COUNT query.
func (s *Store) countAll(ctx context.Context, input *dynamodb.QueryInput) (int64, error) {
	input.Select = types.SelectCount
	var total int64
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("failed to count %s: %w", aws.ToString(input.TableName), err)
		}
		total += int64(result.Count)
		if len(result.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}
