package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/starford/fragments/internal/apperr"
)

// S3Data implements DataStore using AWS S3. Payloads are stored under
// <prefix><ownerID>/<id>.
type S3Data struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config holds configuration for the S3 data store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional custom endpoint (MinIO, LocalStack)
	Prefix   string // optional key prefix (e.g. "fragments/")
}

// NewS3Data creates an S3-backed data store. Credentials come from the
// default AWS config chain.
func NewS3Data(ctx context.Context, cfg S3Config) (*S3Data, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // required for MinIO/LocalStack
		}
	})

	return &S3Data{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3Data) key(ownerID, id string) string {
	return s.prefix + ownerID + "/" + id
}

// Read downloads the payload for (ownerID, id).
func (s *S3Data) Read(ctx context.Context, ownerID, id string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ownerID, id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get %s: %w", id, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read body %s: %w", id, err)
	}
	return data, nil
}

// Write uploads the payload, replacing any previous object.
func (s *S3Data) Write(ctx context.Context, ownerID, id string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(ownerID, id)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", id, err)
	}
	return nil
}

// Exists checks object presence with a HEAD request.
func (s *S3Data) Exists(ctx context.Context, ownerID, id string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ownerID, id)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("s3: head %s: %w", id, err)
	}
	return true, nil
}

// Delete removes the payload object. S3 deletes are idempotent, so the
// not-found pre-check the service performs is the only existence guard.
func (s *S3Data) Delete(ctx context.Context, ownerID, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ownerID, id)),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s: %w", id, err)
	}
	return nil
}
