package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type dynamoDocument struct {
	Key       string `dynamodbav:"doc_key"`
	Body      []byte `dynamodbav:"body"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// DynamoStore keeps documents in a DynamoDB table keyed by doc_key.
type DynamoStore struct {
	client dynamoAPI
	table  string
}

// NewDynamoStore creates a store for the given table.
func NewDynamoStore(client dynamoAPI, table string) *DynamoStore {
	if client == nil {
		panic("docstore: dynamodb client cannot be nil")
	}
	if table == "" {
		panic("docstore: dynamodb table cannot be empty")
	}
	return &DynamoStore{client: client, table: table}
}

func (s *DynamoStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{"doc_key": &types.AttributeValueMemberS{Value: key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("docstore: dynamodb get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var doc dynamoDocument
	if err := attributevalue.UnmarshalMap(out.Item, &doc); err != nil {
		return nil, fmt.Errorf("docstore: dynamodb decode %s: %w", key, err)
	}
	return doc.Body, nil
}

func (s *DynamoStore) Put(ctx context.Context, key string, data []byte) error {
	item, err := attributevalue.MarshalMap(dynamoDocument{
		Key:       key,
		Body:      data,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("docstore: dynamodb encode %s: %w", key, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("docstore: dynamodb put %s: %w", key, err)
	}
	return nil
}
