// S3-backed object store. Implements the pixstore.ObjectStore interface.
package s3store

import (
	"bytes"
	"context"
	"io/ioutil"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pixstore/pixstore/pkg/pixstore"
)

type Config struct {
	Region string
	Bucket string
	// Endpoint overrides the AWS endpoint, e.g. a localstack address. When
	// set, path-style addressing is forced since virtual-host buckets don't
	// resolve against a local endpoint.
	Endpoint  string
	AccessKey string
	SecretKey string
}

type Store struct {
	client *s3.S3
	bucket string
	log    logrus.FieldLogger
}

var _ pixstore.ObjectStore = (*Store)(nil)

func New(cfg Config, logger logrus.FieldLogger) (*Store, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create AWS session for S3")
	}

	return &Store{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		log:    logger,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrap(err, "Failed to put object "+key)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, errors.Wrapf(pixstore.ErrNotFound, "object %s", key)
		}
		return nil, errors.Wrap(err, "Failed to get object "+key)
	}
	defer out.Body.Close()

	data, err := ioutil.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read object body for "+key)
	}
	return data, nil
}

// Delete is idempotent: S3 reports success for a missing key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrap(err, "Failed to delete object "+key)
	}
	return nil
}

func (s *Store) SignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", errors.Wrap(err, "Failed to presign URL for "+key)
	}
	return url, nil
}

// Provision creates the bucket if it doesn't exist yet. us-east-1 must not
// send a LocationConstraint, every other region must.
func (s *Store) Provision(ctx context.Context) error {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		s.log.Info("Bucket " + s.bucket + " already exists")
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	region := aws.StringValue(s.client.Config.Region)
	if region != "us-east-1" {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(region),
		}
	}
	if _, err := s.client.CreateBucketWithContext(ctx, input); err != nil {
		return errors.Wrap(err, "Failed to create bucket "+s.bucket)
	}
	s.log.Info("Bucket " + s.bucket + " created successfully")
	return nil
}
