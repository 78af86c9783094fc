// Package storage provides object storage backends for document attachments.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	attachmentapp "github.com/fieldbook/backend/internal/application/attachment"
	"github.com/fieldbook/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	defaultEndpoint   = "http://localhost:9000"
	defaultRegion     = "us-east-1"
	defaultPresignTTL = 15 * time.Minute
)

var errEmptyKey = errors.New("storage: empty object key")

var _ attachmentapp.ObjectStorage = (*S3Store)(nil)

// S3Store keeps attachment bytes in one bucket of an S3-compatible service
// (AWS S3, MinIO, RustFS). Objects are addressed by the storage key the
// attachment service derives from owner, document and file name.
type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	presignTTL time.Duration
	logger     *zap.Logger
}

// S3Option configures an S3Store
type S3Option func(*S3Store)

// WithLogger sets the store's logger
func WithLogger(logger *zap.Logger) S3Option {
	return func(s *S3Store) { s.logger = logger }
}

// WithPresignTTL overrides how long download links stay valid
func WithPresignTTL(d time.Duration) S3Option {
	return func(s *S3Store) { s.presignTTL = d }
}

// NewS3Store builds a store from the storage section of the config.
// No request is made until the first call.
func NewS3Store(ctx context.Context, cfg *config.StorageConfig, opts ...S3Option) (*S3Store, error) {
	if cfg == nil {
		return nil, errors.New("storage: configuration is required")
	}
	for _, req := range []struct{ value, name string }{
		{cfg.Bucket, "bucket"},
		{cfg.AccessKey, "access key"},
		{cfg.SecretKey, "secret key"},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("storage: %s is required", req.name)
		}
	}

	endpoint, err := resolveEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	s := &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		presignTTL: cfg.PresignExpiration,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignTTL <= 0 {
		s.presignTTL = defaultPresignTTL
	}
	return s, nil
}

// resolveEndpoint adds a scheme to a bare host:port endpoint
func resolveEndpoint(endpoint string, useSSL bool) (string, error) {
	if endpoint == "" {
		return defaultEndpoint, nil
	}
	if !strings.Contains(endpoint, "://") {
		if useSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("storage: invalid endpoint %q", endpoint)
	}
	return endpoint, nil
}

// isNotFound reports whether err is a missing bucket or key. S3-compatible
// servers disagree on which code they send for a HEAD miss.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return true
	}
	return false
}

// EnsureBucket creates the bucket when it is missing. The server calls it
// once at startup.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("storage: head bucket %s: %w", s.bucket, err)
	}

	s.logger.Info("creating attachment bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BucketAlreadyOwnedByYou" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("storage: create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload writes an object. size must equal the body length because the
// body may not be seekable.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errEmptyKey
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	s.logger.Debug("attachment object stored", zap.String("key", key), zap.Int64("size", size))
	return nil
}

// GenerateDownloadURL presigns a GET. A non-positive ttl uses the store
// default.
func (s *S3Store) GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	if ttl <= 0 {
		ttl = s.presignTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return req.URL, time.Now().Add(ttl), nil
}

// DeleteObject removes an object. A missing key is not an error.
func (s *S3Store) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether an object is present
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("storage: head %s: %w", key, err)
	}
}

// Bucket returns the bucket name
func (s *S3Store) Bucket() string {
	return s.bucket
}
