package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-sdb-toolkit/pkg/config"
)

const (
	dynamoBatchSize = 25
	// tentativas de reenviar UnprocessedItems antes de desistir
	dynamoMaxResubmits = 3
)

// DynamoDBClient é o subconjunto do SDK usado pelo sink (permite mock).
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoDBSink grava cada item como um registro da tabela, com o nome do
// item na hash key.
type DynamoDBSink struct {
	client  DynamoDBClient
	table   string
	hashKey string
	onlyNew bool

	// Skipped conta itens já existentes ignorados no modo OnlyNew.
	Skipped int
}

func NewDynamoDBSink(client DynamoDBClient, cfg config.DynamoDBSinkConf) *DynamoDBSink {
	hashKey := cfg.HashKey
	if hashKey == "" {
		hashKey = "id"
	}
	return &DynamoDBSink{client: client, table: cfg.Table, hashKey: hashKey, onlyNew: cfg.OnlyNew}
}

func NewDynamoDBSinkFromConfig(awsCfg aws.Config, cfg config.DynamoDBSinkConf) *DynamoDBSink {
	return NewDynamoDBSink(dynamodb.NewFromConfig(awsCfg), cfg)
}

func (s *DynamoDBSink) marshal(r Record) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("export: dynamodb marshal %s: %w", r.Name, err)
	}
	av[s.hashKey] = &types.AttributeValueMemberS{Value: r.Domain + "/" + r.Name}
	return av, nil
}

func (s *DynamoDBSink) Write(ctx context.Context, records []Record) error {
	if s.onlyNew {
		return s.putIfAbsent(ctx, records)
	}

	requests := make([]types.WriteRequest, 0, len(records))
	for _, r := range records {
		av, err := s.marshal(r)
		if err != nil {
			return err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for _, batch := range chunks(requests, dynamoBatchSize) {
		if err := s.batchWrite(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoDBSink) batchWrite(ctx context.Context, batch []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.table: batch}
	for attempt := 0; attempt <= dynamoMaxResubmits; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("export: dynamodb batchwrite failed: %w", err)
		}
		if len(out.UnprocessedItems[s.table]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems
	}
	return fmt.Errorf("export: dynamodb left %d unprocessed items", len(pending[s.table]))
}

// putIfAbsent usa attribute_not_exists(hash key), item a item, já que
// BatchWriteItem não aceita condição.
func (s *DynamoDBSink) putIfAbsent(ctx context.Context, records []Record) error {
	cond := expression.AttributeNotExists(expression.Name(s.hashKey))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("export: build condition: %w", err)
	}

	for _, r := range records {
		av, err := s.marshal(r)
		if err != nil {
			return err
		}
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(s.table),
			Item:                     av,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		})
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			s.Skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("export: dynamodb put %s: %w", r.Name, err)
		}
	}
	return nil
}

func (s *DynamoDBSink) Close(context.Context) error { return nil }
