// DynamoDB-backed metadata store. Implements the pixstore.MetadataStore
// interface. The table is keyed by image_id with two global secondary
// indexes, one per query path:
//
//	owner_id-index : partition owner_id,    sort uploaded_at
//	tag-index      : partition primary_tag, sort uploaded_at
package dynamostore

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pixstore/pixstore/pkg/pixstore"
)

type Config struct {
	Region string
	Table  string
	// Endpoint overrides the AWS endpoint, e.g. a localstack address.
	Endpoint  string
	AccessKey string
	SecretKey string
}

type Store struct {
	client *dynamodb.DynamoDB
	table  string
	log    logrus.FieldLogger
}

var _ pixstore.MetadataStore = (*Store)(nil)

func New(cfg Config, logger logrus.FieldLogger) (*Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create AWS session for DynamoDB")
	}

	return &Store{
		client: dynamodb.New(sess),
		table:  cfg.Table,
		log:    logger,
	}, nil
}

// IndexPartitionAttr maps a secondary-index name to its partition key
// attribute.
func IndexPartitionAttr(indexName string) (string, error) {
	switch indexName {
	case pixstore.OwnerIndexName:
		return "owner_id", nil
	case pixstore.TagIndexName:
		return "primary_tag", nil
	}
	return "", errors.Errorf("unknown index %q", indexName)
}

func (s *Store) PutRecord(ctx context.Context, rec *pixstore.ImageRecord) error {
	item, err := dynamodbattribute.MarshalMap(rec)
	if err != nil {
		return errors.Wrap(err, "Failed to marshal record "+rec.ImageID)
	}
	_, err = s.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return errors.Wrap(err, "Failed to put record "+rec.ImageID)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, imageID string) (*pixstore.ImageRecord, error) {
	out, err := s.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"image_id": {S: aws.String(imageID)},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get record "+imageID)
	}
	if out.Item == nil {
		return nil, errors.Wrapf(pixstore.ErrNotFound, "record %s", imageID)
	}

	rec := &pixstore.ImageRecord{}
	if err := dynamodbattribute.UnmarshalMap(out.Item, rec); err != nil {
		return nil, errors.Wrap(err, "Failed to unmarshal record "+imageID)
	}
	return rec, nil
}

// DeleteByID is idempotent: DynamoDB reports success for a missing key.
func (s *Store) DeleteByID(ctx context.Context, imageID string) error {
	_, err := s.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]*dynamodb.AttributeValue{
			"image_id": {S: aws.String(imageID)},
		},
	})
	if err != nil {
		return errors.Wrap(err, "Failed to delete record "+imageID)
	}
	return nil
}

func (s *Store) QueryIndex(ctx context.Context, indexName, partition string) ([]pixstore.ImageRecord, error) {
	attr, err := IndexPartitionAttr(indexName)
	if err != nil {
		return nil, err
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String("#p = :v"),
		ExpressionAttributeNames: map[string]*string{
			"#p": aws.String(attr),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":v": {S: aws.String(partition)},
		},
		// Ascending uploaded_at, the index sort key.
		ScanIndexForward: aws.Bool(true),
	}

	var recs []pixstore.ImageRecord
	var unmarshalErr error
	err = s.client.QueryPagesWithContext(ctx, input,
		func(page *dynamodb.QueryOutput, lastPage bool) bool {
			var batch []pixstore.ImageRecord
			if unmarshalErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &batch); unmarshalErr != nil {
				return false
			}
			recs = append(recs, batch...)
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to query index "+indexName)
	}
	if unmarshalErr != nil {
		return nil, errors.Wrap(unmarshalErr, "Failed to unmarshal results from index "+indexName)
	}
	return recs, nil
}

func (s *Store) ScanAll(ctx context.Context) ([]pixstore.ImageRecord, error) {
	var recs []pixstore.ImageRecord
	var unmarshalErr error
	err := s.client.ScanPagesWithContext(ctx,
		&dynamodb.ScanInput{TableName: aws.String(s.table)},
		func(page *dynamodb.ScanOutput, lastPage bool) bool {
			var batch []pixstore.ImageRecord
			if unmarshalErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &batch); unmarshalErr != nil {
				return false
			}
			recs = append(recs, batch...)
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to scan table "+s.table)
	}
	if unmarshalErr != nil {
		return nil, errors.Wrap(unmarshalErr, "Failed to unmarshal scan results")
	}
	return recs, nil
}

// Provision creates the table with both secondary indexes if it doesn't
// exist yet, and waits until it is usable.
func (s *Store) Provision(ctx context.Context) error {
	_, err := s.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err == nil {
		s.log.Info("Table " + s.table + " already exists")
		return nil
	}
	if aerr, ok := err.(awserr.Error); !ok || aerr.Code() != dynamodb.ErrCodeResourceNotFoundException {
		return errors.Wrap(err, "Failed to describe table "+s.table)
	}

	throughput := &dynamodb.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(5),
		WriteCapacityUnits: aws.Int64(5),
	}
	_, err = s.client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("image_id"), KeyType: aws.String(dynamodb.KeyTypeHash)},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String("image_id"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("owner_id"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("primary_tag"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("uploaded_at"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		GlobalSecondaryIndexes: []*dynamodb.GlobalSecondaryIndex{
			{
				IndexName: aws.String(pixstore.OwnerIndexName),
				KeySchema: []*dynamodb.KeySchemaElement{
					{AttributeName: aws.String("owner_id"), KeyType: aws.String(dynamodb.KeyTypeHash)},
					{AttributeName: aws.String("uploaded_at"), KeyType: aws.String(dynamodb.KeyTypeRange)},
				},
				Projection:            &dynamodb.Projection{ProjectionType: aws.String(dynamodb.ProjectionTypeAll)},
				ProvisionedThroughput: throughput,
			},
			{
				IndexName: aws.String(pixstore.TagIndexName),
				KeySchema: []*dynamodb.KeySchemaElement{
					{AttributeName: aws.String("primary_tag"), KeyType: aws.String(dynamodb.KeyTypeHash)},
					{AttributeName: aws.String("uploaded_at"), KeyType: aws.String(dynamodb.KeyTypeRange)},
				},
				Projection:            &dynamodb.Projection{ProjectionType: aws.String(dynamodb.ProjectionTypeAll)},
				ProvisionedThroughput: throughput,
			},
		},
		ProvisionedThroughput: throughput,
	})
	if err != nil {
		return errors.Wrap(err, "Failed to create table "+s.table)
	}

	err = s.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return errors.Wrap(err, "Timed out waiting for table "+s.table)
	}
	s.log.Info("Table " + s.table + " created successfully")
	return nil
}
