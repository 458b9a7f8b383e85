package infra

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// ErrStorageNotConfigured is returned when no object-store endpoint was set.
var ErrStorageNotConfigured = errors.New("object storage not configured")

// ErrObjectNotFound is returned by Get for a missing key. It does not count
// against the circuit breaker.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage stores unit/category images and export artifacts in MinIO.
// Every call goes through the circuit breaker.
type ObjectStorage struct {
	client *minio.Client
	bucket string
	cb     *CircuitBreaker
}

// StorageConfig locates the MinIO bucket. An empty Endpoint disables storage.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewObjectStorage connects to MinIO and makes sure the bucket exists.
// An empty endpoint yields a storage whose calls fail with ErrStorageNotConfigured.
func NewObjectStorage(ctx context.Context, cfg StorageConfig, cb *CircuitBreaker) (*ObjectStorage, error) {
	s := &ObjectStorage{bucket: cfg.Bucket, cb: cb}
	if cfg.Endpoint == "" {
		log.Warn().Msg("storage: MINIO_ENDPOINT empty, uploads disabled")
		return s, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	s.client = client

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}
	return s, nil
}

// Put uploads r under key through the circuit breaker.
func (s *ObjectStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return ErrStorageNotConfigured
	}
	return s.cb.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
		return err
	})
}

// Get opens key for reading. A missing key is ErrObjectNotFound.
func (s *ObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, ErrStorageNotConfigured
	}
	var obj *minio.Object
	missing := false
	err := s.cb.Execute(ctx, func(ctx context.Context) error {
		o, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		// GetObject is lazy; Stat surfaces a missing key.
		if _, err := o.Stat(); err != nil {
			_ = o.Close()
			if minio.ToErrorResponse(err).Code == "NoSuchKey" {
				missing = true
				return nil
			}
			return err
		}
		obj = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, ErrObjectNotFound
	}
	return obj, nil
}

// Remove deletes key.
func (s *ObjectStorage) Remove(ctx context.Context, key string) error {
	if s.client == nil {
		return ErrStorageNotConfigured
	}
	return s.cb.Execute(ctx, func(ctx context.Context) error {
		return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	})
}

// State exposes the breaker state for health checks.
func (s *ObjectStorage) State() CBState { return s.cb.State() }
