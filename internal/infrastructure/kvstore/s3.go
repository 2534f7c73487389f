package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mealquest/backend/config"
	"github.com/mealquest/backend/internal/domain"
)

var _ Store = (*S3Store)(nil)

// objectAPI is the subset of the S3 client the store uses
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps one object per key under a bucket prefix
type S3Store struct {
	bucket string
	prefix string
	s3     objectAPI
}

// NewS3Store wraps an existing S3 client
func NewS3Store(client objectAPI, bucket, prefix string) *S3Store {
	return &S3Store{
		bucket: bucket,
		prefix: prefix,
		s3:     client,
	}
}

// NewS3StoreFromConfig loads AWS credentials from the environment and builds a store
func NewS3StoreFromConfig(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if logger != nil {
		logger.Info("using S3 slot store", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "region", cfg.Region)
	}
	return NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// Get downloads the object backing key
func (s *S3Store) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: failed to get object from S3: %v", domain.ErrPersistenceReadFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", domain.ErrPersistenceReadFailure, err)
	}
	return string(data), true, nil
}

// Set uploads value as the object backing key
func (s *S3Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return domain.ErrInvalidRequest
	}

	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to put object to S3: %v", domain.ErrPersistenceWriteFailure, err)
	}
	return nil
}

// Delete removes the object backing key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete object from S3: %v", domain.ErrPersistenceWriteFailure, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no resources to release
func (s *S3Store) Close() error {
	return nil
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key + ".json"
}
