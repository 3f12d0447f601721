// Package storage provides object storage implementations for invoice documents.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	infraconfig "github.com/invoicer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SigV4 presigned URLs cannot outlive seven days.
const maxSigV4Expiry = 7 * 24 * time.Hour

// Ensure S3ObjectStore implements ObjectStore
var _ invoicingapp.ObjectStore = (*S3ObjectStore)(nil)

// S3ObjectStore implements ObjectStore using AWS S3 SDK v2.
// It is compatible with any S3-compatible storage (AWS S3, GCS interop, MinIO, etc.)
type S3ObjectStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	maxPresign    time.Duration
	logger        *zap.Logger
}

// S3ObjectStoreOption is a functional option for configuring S3ObjectStore
type S3ObjectStoreOption func(*S3ObjectStore)

// WithLogger sets a custom logger for S3ObjectStore
func WithLogger(logger *zap.Logger) S3ObjectStoreOption {
	return func(s *S3ObjectStore) {
		s.logger = logger
	}
}

// NewS3ObjectStore creates a new S3ObjectStore from configuration.
// Requests are never retried; callers see the first failure.
func NewS3ObjectStore(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3ObjectStoreOption) (*S3ObjectStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		if cfg.AccessKey == "" || cfg.SecretKey == "" {
			return nil, errors.New("storage access key and secret key must be set together")
		}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	var endpoint string
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		// Third-party S3 implementations reject the default CRC trailers.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	store := &S3ObjectStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		maxPresign:    cfg.MaxPresign,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	if store.maxPresign <= 0 || store.maxPresign > maxSigV4Expiry {
		store.maxPresign = maxSigV4Expiry
	}

	return store, nil
}

// BucketExists reports whether the configured bucket is reachable.
func (s *S3ObjectStore) BucketExists(ctx context.Context) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) || isNoSuchBucket(err) {
		return false, nil
	}
	return false, err
}

// Put uploads body under key after confirming the bucket exists.
func (s *S3ObjectStore) Put(ctx context.Context, key string, body []byte, meta invoicingapp.ObjectMetadata) error {
	if key == "" {
		return errors.New("storage key is required")
	}

	exists, err := s.BucketExists(ctx)
	if err != nil {
		return shared.Wrap(shared.CodeStorageIO, "failed to check bucket", err)
	}
	if !exists {
		s.logger.Error("storage bucket does not exist", zap.String("bucket", s.bucket))
		return shared.NewDomainError(shared.CodeStorageUnavailable,
			fmt.Sprintf("storage bucket %q does not exist", s.bucket))
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		Metadata:      meta.Attributes,
	}
	if meta.ContentType != "" {
		input.ContentType = aws.String(meta.ContentType)
	}
	if meta.CacheControl != "" {
		input.CacheControl = aws.String(meta.CacheControl)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return shared.Wrap(shared.CodeStorageIO, "failed to upload object", err)
	}

	s.logger.Debug("object stored",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)))
	return nil
}

// SignedReadURL presigns a GET for key. The ttl is clamped to the configured
// maximum.
func (s *S3ObjectStore) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	if ttl > s.maxPresign {
		s.logger.Warn("signed URL lifetime clamped to the backend maximum",
			zap.String("key", key),
			zap.Duration("requested", ttl),
			zap.Duration("granted", s.maxPresign))
		ttl = s.maxPresign
	}
	if ttl <= 0 {
		ttl = s.maxPresign
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", shared.Wrap(shared.CodeStorageIO, "failed to sign download URL", err)
	}
	return req.URL, nil
}

// Get downloads the object stored under key.
func (s *S3ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("storage key is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchBucket(err) {
			s.logger.Error("storage bucket does not exist", zap.String("bucket", s.bucket))
			return nil, shared.Wrap(shared.CodeStorageUnavailable,
				fmt.Sprintf("storage bucket %q does not exist", s.bucket), err)
		}
		if isNotFound(err) {
			return nil, invoicingapp.ErrObjectNotFound
		}
		return nil, shared.Wrap(shared.CodeStorageIO, "failed to download object", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, shared.Wrap(shared.CodeStorageIO, "failed to read object body", err)
	}
	return data, nil
}

// Bucket returns the bucket name
func (s *S3ObjectStore) Bucket() string {
	return s.bucket
}

// isNotFound reports a missing object. HeadBucket also answers a bare 404.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	// Some S3-compatible services only report the error code.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func isNoSuchBucket(err error) bool {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}
