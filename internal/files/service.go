// Package files issues presigned URLs for post media. Upload keys are
// uuid-prefixed so two users uploading "cat.png" never collide.
package files

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaverse/internal/storage"
)

const (
	uploadTTL   = 15 * time.Minute
	downloadTTL = 1 * time.Hour
)

// Service handles media URL generation over object storage.
type Service struct {
	storage storage.Service
}

func NewService(storage storage.Service) *Service {
	return &Service{storage: storage}
}

// ValidateFilename rejects empty, oversized and path-traversing names.
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if len(filename) > MaxFilenameLength {
		return fmt.Errorf("filename too long (max %d characters)", MaxFilenameLength)
	}
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return fmt.Errorf("filename contains invalid characters")
	}
	if filepath.Ext(filename) == "" {
		return fmt.Errorf("filename must have an extension")
	}
	return nil
}

// ValidateContentType enforces the media whitelist.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("content type cannot be empty")
	}
	if !AllowedContentTypes[contentType] {
		return fmt.Errorf("content type %s is not allowed", contentType)
	}
	return nil
}

// GenerateUploadURL validates the request and returns a presigned PUT URL.
func (s *Service) GenerateUploadURL(ctx context.Context, req *UploadURLRequest) (*UploadURLResponse, error) {
	if err := ValidateFilename(req.Filename); err != nil {
		return nil, fmt.Errorf("invalid filename: %w", err)
	}
	if err := ValidateContentType(req.ContentType); err != nil {
		return nil, fmt.Errorf("invalid content type: %w", err)
	}
	if req.MaxSize > MaxFileSize {
		return nil, fmt.Errorf("max file size cannot exceed %d bytes", MaxFileSize)
	}

	fileKey := fmt.Sprintf("%s-%s", uuid.New().String(), req.Filename)

	uploadURL, err := s.storage.GeneratePresignedUploadURL(ctx, fileKey, req.ContentType, uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("generate upload URL: %w", err)
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(uploadTTL).Unix(),
	}, nil
}

// GenerateDownloadURL returns a presigned GET URL for a stored key.
func (s *Service) GenerateDownloadURL(ctx context.Context, req *DownloadURLRequest) (*DownloadURLResponse, error) {
	if req.FileKey == "" {
		return nil, fmt.Errorf("file key cannot be empty")
	}

	downloadURL, err := s.storage.GeneratePresignedDownloadURL(ctx, req.FileKey, downloadTTL)
	if err != nil {
		return nil, fmt.Errorf("generate download URL: %w", err)
	}

	return &DownloadURLResponse{
		DownloadURL: downloadURL,
		ExpiresAt:   time.Now().Add(downloadTTL).Unix(),
	}, nil
}

// DeleteFile removes a media object.
func (s *Service) DeleteFile(ctx context.Context, fileKey string) error {
	if fileKey == "" {
		return fmt.Errorf("file key cannot be empty")
	}
	if err := s.storage.DeleteObject(ctx, fileKey); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// HealthCheck checks the backing storage.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.storage.Health(ctx)
}
