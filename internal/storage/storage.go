// Package storage backs the files service with S3-compatible object storage
// (MinIO in development). Clients never stream bytes through the platform;
// they get presigned URLs and talk to storage directly.
package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Service is the object storage contract for post media.
type Service interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	DeleteObject(ctx context.Context, key string) error
	EnsureBucketExists(ctx context.Context) error
	Health(ctx context.Context) error
}

type service struct {
	client          *s3.Client
	presigner       *s3.PresignClient
	publicPresigner *s3.PresignClient
	bucketName      string
}

// New creates a storage service from S3_* environment variables. Presigned
// URLs are signed against S3_PUBLIC_ENDPOINT when it differs from the
// internal endpoint, so browsers outside the cluster network can use them.
func New(ctx context.Context) (Service, error) {
	endpoint := os.Getenv("S3_ENDPOINT")
	publicEndpoint := os.Getenv("S3_PUBLIC_ENDPOINT")
	accessKey := os.Getenv("S3_ACCESS_KEY")
	secretKey := os.Getenv("S3_SECRET_KEY")
	bucketName := os.Getenv("S3_BUCKET_NAME")
	useSSL := os.Getenv("S3_USE_SSL") == "true"

	for name, value := range map[string]string{
		"S3_ENDPOINT":    endpoint,
		"S3_ACCESS_KEY":  accessKey,
		"S3_SECRET_KEY":  secretKey,
		"S3_BUCKET_NAME": bucketName,
	} {
		if value == "" {
			return nil, fmt.Errorf("%s environment variable is required", name)
		}
	}

	if publicEndpoint == "" {
		publicEndpoint = endpoint
	}

	protocol := "http"
	if useSSL {
		protocol = "https"
	}

	client, err := newClient(ctx, fmt.Sprintf("%s://%s", protocol, endpoint), accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	presigner := s3.NewPresignClient(client)

	publicPresigner := presigner
	if publicEndpoint != endpoint {
		publicClient, err := newClient(ctx, fmt.Sprintf("%s://%s", protocol, publicEndpoint), accessKey, secretKey)
		if err != nil {
			return nil, err
		}
		publicPresigner = s3.NewPresignClient(publicClient)
	}

	s := &service{
		client:          client,
		presigner:       presigner,
		publicPresigner: publicPresigner,
		bucketName:      bucketName,
	}

	if err := s.EnsureBucketExists(ctx); err != nil {
		log.Printf("[Storage] Warning: failed to ensure bucket exists: %v", err)
	}
	return s, nil
}

// newClient builds an S3 client pinned to one endpoint with path-style
// addressing, which MinIO requires.
func newClient(ctx context.Context, endpointURL, accessKey, secretKey string) (*s3.Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpointURL,
				SigningRegion:     "us-east-1",
				HostnameImmutable: true,
			}, nil
		},
	)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

func (s *service) EnsureBucketExists(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err == nil {
		return nil
	}

	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucketName),
	}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}

	log.Printf("[Storage] Created bucket %s", s.bucketName)
	return nil
}

func (s *service) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	if contentType == "" {
		return "", fmt.Errorf("content type cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	request, err := s.publicPresigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("presign upload for %s: %w", key, err)
	}
	return request.URL, nil
}

func (s *service) GeneratePresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key cannot be empty")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("TTL must be positive")
	}

	request, err := s.publicPresigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("presign download for %s: %w", key, err)
	}
	return request.URL, nil
}

func (s *service) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty")
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *service) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
