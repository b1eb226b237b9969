package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/resilience"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/svcerr"
)

// S3Client is the subset of *s3.Client this package depends on.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store is the Store backed by a single S3 bucket, one object per key.
type S3Store struct {
	client S3Client
	bucket string
	prefix string
	retry  resilience.RetryConfig
}

// NewS3Store constructs a Store keeping every key under bucket/prefix.
func NewS3Store(client S3Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, retry: resilience.DefaultRetryConfig()}
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	var missing bool

	err := resilience.Retry(ctx, s.retry, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(key)),
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				missing = true
				return nil
			}
			return err
		}
		defer out.Body.Close()
		data, readErr := io.ReadAll(out.Body)
		if readErr != nil {
			return readErr
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, false, svcerr.TransientSink("get state blob "+key, err)
	}
	if missing {
		return nil, false, nil
	}
	return body, true, nil
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	err := resilience.Retry(ctx, s.retry, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(key)),
			Body:   bytes.NewReader(data),
		})
		return err
	})
	if err != nil {
		return svcerr.TransientSink("put state blob "+key, err)
	}
	return nil
}
