package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Shivansh47201/vartalap/pkg/sanitize"
)

// urlExpiry bounds how long presigned upload and download links stay valid
const urlExpiry = 15 * time.Minute

// Config holds object storage connection settings
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Service hands out presigned URLs for message attachments and status
// media so uploads bypass the API server entirely
type Service struct {
	client *minio.Client
	bucket string
}

// NewService connects to object storage and ensures the bucket exists
func NewService(cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Service{client: client, bucket: cfg.Bucket}, nil
}

// UploadTicket is a one-shot presigned upload slot
type UploadTicket struct {
	ObjectKey string    `json:"object_key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateUploadURL creates a presigned PUT URL scoped under the user's
// prefix. The original file name survives only as the object suffix.
func (s *Service) GenerateUploadURL(ctx context.Context, userID uuid.UUID, fileName string) (*UploadTicket, error) {
	objectKey := fmt.Sprintf("users/%s/%s%s", userID, uuid.New(), path.Ext(sanitize.Filename(fileName)))

	url, err := s.client.PresignedPutObject(ctx, s.bucket, objectKey, urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &UploadTicket{
		ObjectKey: objectKey,
		UploadURL: url.String(),
		ExpiresAt: time.Now().Add(urlExpiry),
	}, nil
}

// GenerateDownloadURL creates a presigned GET URL for a stored object
func (s *Service) GenerateDownloadURL(ctx context.Context, objectKey string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return url.String(), nil
}

// Delete removes a stored object
func (s *Service) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
