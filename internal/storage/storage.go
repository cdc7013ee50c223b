// Package storage stores uploaded files in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/coworkdir/admin-api/internal/config"
)

// ErrNotConfigured is returned by New when the bucket settings are missing.
var ErrNotConfigured = errors.New("storage is not configured")

// BlobStore is the object storage used by the upload service.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignedPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	ObjectURL(key string) string
}

// MinioStore implements BlobStore with minio-go.  It works against MinIO,
// Cloudflare R2 and S3 alike.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	endpoint  string
	secure    bool
}

// New builds the client.  It does not create the bucket; R2 buckets are
// provisioned out of band.
func New(cfg config.StorageConfig) (*MinioStore, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: cfg.PublicURL,
		endpoint:  cfg.Endpoint,
		secure:    cfg.UseSSL,
	}, nil
}

// Put uploads r under key and returns the object's permanent URL.
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SignedURL returns a time-limited GET URL.
func (s *MinioStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

// PresignedPut returns a time-limited URL the browser can PUT the file to.
func (s *MinioStore) PresignedPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return u.String(), nil
}

// ObjectURL is the permanent address of key: under the public base URL
// when one is set, otherwise path-style on the endpoint.
func (s *MinioStore) ObjectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, s.bucket, strings.TrimPrefix(key, "/"))
}
