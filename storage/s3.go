package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the slice of the S3 client the object store needs; tests fake it.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore writes objects into one bucket.
type ObjectStore struct {
	client s3API
	bucket string
}

// NewObjectStore builds an ObjectStore from an AWS config. usePathStyle is for
// S3-compatible providers such as MinIO or LocalStack.
func NewObjectStore(cfg aws.Config, bucket string, usePathStyle bool) *ObjectStore {
	c := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})
	return &ObjectStore{client: c, bucket: bucket}
}

// Bucket is the target bucket name.
func (s *ObjectStore) Bucket() string { return s.bucket }

// PutObject uploads body under key, replacing any existing object.
func (s *ObjectStore) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to upload object to S3: %w", err)
	}
	return nil
}
