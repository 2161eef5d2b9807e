// Package objectstore archives generated files in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/lymau/lead-app/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver stores a file and returns a time-limited download link.
type Archiver interface {
	Archive(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// MinIOArchiver uploads to one bucket of a MinIO/S3 endpoint.
type MinIOArchiver struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

// New returns nil when no endpoint is configured.
func New(cfg config.MinIOConfig) (*MinIOArchiver, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MinIOArchiver{client: client, bucket: cfg.Bucket, presignTTL: ttl}, nil
}

func (a *MinIOArchiver) Archive(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}

	u, err := a.client.PresignedGetObject(ctx, a.bucket, objectName, a.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return u.String(), nil
}
