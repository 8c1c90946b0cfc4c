package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"twitterpipe/types"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoTable writes items into one DynamoDB table. The table's key schema is owned by
// the infrastructure; items carry their key attributes as ordinary fields.
type DynamoTable struct {
	client dynamoAPI
	table  string
}

func NewDynamoTable(cfg aws.Config, table string) *DynamoTable {
	return &DynamoTable{client: dynamodb.NewFromConfig(cfg), table: table}
}

// PutItem marshals item with its dynamodbav tags and puts it, replacing any item with
// the same key.
func (t *DynamoTable) PutItem(ctx context.Context, item types.Keyed) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("error marshalling item for dynamo: %w", err)
	}

	_, err = t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("error putting item into %s: %w", t.table, err)
	}
	return nil
}
