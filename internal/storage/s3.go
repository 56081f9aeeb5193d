package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zhouzirui/submission-desk/backend/internal/model/submission"
)

// ObjectAPI is the subset of the S3 client the store needs.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps the document as a single S3 object.
type S3Store struct {
	client ObjectAPI
	bucket string
	key    string
}

// NewS3Store builds a client from the default AWS credential chain.
func NewS3Store(ctx context.Context, region, bucket, key string) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(cfg), bucket, key)
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client ObjectAPI, bucket, key string) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("s3 key is required")
	}
	return &S3Store{client: client, bucket: bucket, key: key}, nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context) ([]submission.Submission, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		if isNotFound(err) {
			return []submission.Submission{}, nil
		}
		return nil, fmt.Errorf("%w: get s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	items, skipped, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load s3://%s/%s: %w", s.bucket, s.key, err)
	}
	if skipped > 0 {
		slog.Warn("skipped unreadable submission records", "bucket", s.bucket, "key", s.key, "skipped", skipped)
	}
	return items, nil
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, items []submission.Submission) error {
	data, err := Encode(items)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrUnavailable, s.bucket, s.key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var responseError *awshttp.ResponseError
	return errors.As(err, &responseError) && responseError.HTTPStatusCode() == http.StatusNotFound
}
