package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/abduss/clinstudy/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const objectStoreTimeout = 5 * time.Second

// ErrBucketMissing is returned by CheckBucket when the documents bucket is gone.
var ErrBucketMissing = errors.New("documents bucket does not exist")

// NewMinIOClient builds a client for the document object store.
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	endpoint := cfg.Endpoint
	if _, _, err := net.SplitHostPort(endpoint); err != nil {
		endpoint = net.JoinHostPort(endpoint, "9000")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// EnsureBucket creates the documents bucket on first start.
func EnsureBucket(ctx context.Context, client *minio.Client, cfg config.MinIOConfig) error {
	ctx, cancel := context.WithTimeout(ctx, objectStoreTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if exists {
		return nil
	}

	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
	}
	return nil
}

// bucketChecker is satisfied by *minio.Client.
type bucketChecker interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// CheckBucket reports whether the object store answers and still holds bucket.
func CheckBucket(ctx context.Context, client bucketChecker, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("reach object store: %w", err)
	}
	if !exists {
		return ErrBucketMissing
	}
	return nil
}
