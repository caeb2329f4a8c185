// Package storage provides document store implementations for uploaded
// application files.
package storage

import (
	"context"
	"fmt"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/domain"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
)

// Content types accepted for uploaded documents.
var allowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

// S3Config holds explicit construction parameters for the S3 document store.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; enables S3-compatible backends (e.g. MinIO)
	AccessKeyID     string // optional (falls back to the default credentials chain)
	SecretAccessKey string
	PathStyle       bool
	KeyPrefix       string // object key namespace, defaults to "applications/"
	PublicBaseURL   string // optional base for returned document URLs
}

// S3DocumentStore implements ports.DocumentStore against a single S3 bucket.
// Object keys carry a random UUID so re-uploads to the same slot never collide.
type S3DocumentStore struct {
	client        *s3.Client
	bucket        string
	keyPrefix     string
	publicBaseURL string
}

var _ ports.DocumentStore = (*S3DocumentStore)(nil)

func NewS3DocumentStore(ctx context.Context, cfg S3Config) (*S3DocumentStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "applications/"
	}
	if !strings.HasSuffix(keyPrefix, "/") {
		keyPrefix += "/"
	}
	publicBaseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if publicBaseURL == "" {
		if cfg.Endpoint != "" {
			publicBaseURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.Endpoint, "/"), cfg.Bucket)
		} else {
			publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
		}
	}

	return &S3DocumentStore{
		client:        client,
		bucket:        cfg.Bucket,
		keyPrefix:     keyPrefix,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (s *S3DocumentStore) Store(ctx context.Context, slot string, file ports.FileUpload) (domain.DocumentRef, error) {
	ext, ok := allowedContentTypes[file.ContentType]
	if !ok {
		return domain.DocumentRef{}, fmt.Errorf("%w: content type %q is not accepted", apperrors.ErrUploadRejected, file.ContentType)
	}

	key := s.keyPrefix + slot + "/" + uuid.NewString() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        file.Content,
		ContentType: &file.ContentType,
	})
	if err != nil {
		return domain.DocumentRef{}, fmt.Errorf("%w: failed to store document %s: %v", apperrors.ErrStorage, key, err)
	}

	return domain.DocumentRef{
		Key:         key,
		URL:         s.publicBaseURL + "/" + key,
		ContentType: file.ContentType,
	}, nil
}

// Release removes the stored object. S3 deletes are idempotent, so releasing a
// reference twice is not an error.
func (s *S3DocumentStore) Release(ctx context.Context, ref domain.DocumentRef) error {
	if ref.Key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &ref.Key,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to release document %s: %v", apperrors.ErrStorage, ref.Key, err)
	}
	return nil
}
