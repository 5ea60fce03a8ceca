// Package minio stores uploaded media in an S3-compatible bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pocketflix-portal/internal/domain"
)

// ClientMinio is the subset of *minio.Client the store uses.
type ClientMinio interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

const defaultContentType = "application/octet-stream"

// BlobStore implements blob.Store on a bucket.
type BlobStore struct {
	bucket string
	client ClientMinio
	// open reads an object; *minio.Object cannot be faked so it sits behind a func.
	open   func(ctx context.Context, bucket, name string) (io.ReadCloser, error)
	logger *slog.Logger
}

// New connects to the endpoint and makes sure the bucket exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*BlobStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", cfg.Endpoint, err)
	}
	s := NewWithClient(client, cfg.Bucket, logger)
	s.open = func(ctx context.Context, bucket, name string) (io.ReadCloser, error) {
		return client.GetObject(ctx, bucket, name, minio.GetObjectOptions{})
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithClient is used by tests and by callers that build their own client.
// Reads fail until an opener is provided through New.
func NewWithClient(client ClientMinio, bucket string, logger *slog.Logger) *BlobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobStore{
		bucket: bucket,
		client: client,
		logger: logger,
		open: func(context.Context, string, string) (io.ReadCloser, error) {
			return nil, fmt.Errorf("object reads not configured")
		},
	}
}

func (s *BlobStore) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created bucket", "bucket", s.bucket)
	return nil
}

func (s *BlobStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = defaultContentType
	}
	info, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, name, err)
	}
	s.logger.Debug("stored object", "bucket", s.bucket, "object", name, "size", info.Size)
	return nil
}

func (s *BlobStore) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.open(ctx, s.bucket, name)
	if err != nil {
		return nil, s.mapErr(name, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(name, err)
	}
	return data, nil
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var names []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return names, fmt.Errorf("list %s/%s: %w", s.bucket, prefix, object.Err)
		}
		names = append(names, object.Key)
	}
	return names, nil
}

func (s *BlobStore) Remove(ctx context.Context, name string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s/%s: %w", s.bucket, name, err)
	}
	return nil
}

func (s *BlobStore) mapErr(name string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("object %s: %w", name, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s/%s: %w", s.bucket, name, err)
}
