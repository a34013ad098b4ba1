// Package photostore wraps the MinIO client behind the small object-store
// surface the photo uploader needs: binary upload by path and public-URL
// resolution by path.
package photostore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Config holds the object-store connection settings.
type Config struct {
	Endpoint  string // host:port of the MinIO/S3-compatible endpoint
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base URL for serving objects,
	// e.g. "https://cdn.example.com/task-photos". When empty, URLs are
	// derived from the endpoint and bucket.
	PublicURL string
}

type Store struct {
	client *minio.Client
	cfg    Config
	log    *zap.Logger
}

// New connects to the object store. It does not touch the bucket; call
// EnsureBucket during schema setup.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}
	return &Store{client: client, cfg: cfg, log: logger}, nil
}

// EnsureBucket creates the photo bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %q: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %q: %w", s.cfg.Bucket, err)
	}
	s.log.Info("created photo bucket", zap.String("bucket", s.cfg.Bucket))
	return nil
}

// Put uploads one object under the given path.
func (s *Store) Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, path, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading %q: %w", path, err)
	}
	return nil
}

// PublicURL resolves the externally reachable URL for an object path.
func (s *Store) PublicURL(path string) string {
	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + path
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, path)
}
