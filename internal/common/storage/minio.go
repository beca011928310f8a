// internal/common/storage/minio.go
package storage

import (
	"context"
	"fmt"
	"io"

	"talentmatch-workers/internal/common/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient wraps the MinIO object store client
type MinIOClient struct {
	Client       *minio.Client
	ResumeBucket string
}

// NewMinIO creates a new MinIO client
func NewMinIO(cfg config.MinIOConfig) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinIOClient{
		Client:       client,
		ResumeBucket: cfg.ResumeBucket,
	}, nil
}

// Ping verifies the resume bucket is reachable
func (c *MinIOClient) Ping(ctx context.Context) error {
	exists, err := c.Client.BucketExists(ctx, c.ResumeBucket)
	if err != nil {
		return fmt.Errorf("minio bucket check failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("minio bucket %q does not exist", c.ResumeBucket)
	}
	return nil
}

// EnsureBucket creates the resume bucket if it does not exist
func (c *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := c.Client.BucketExists(ctx, c.ResumeBucket)
	if err != nil {
		return fmt.Errorf("minio bucket check failed: %w", err)
	}
	if exists {
		return nil
	}
	if err := c.Client.MakeBucket(ctx, c.ResumeBucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio bucket create failed: %w", err)
	}
	return nil
}

// GetObject downloads an object from the resume bucket
func (c *MinIOClient) GetObject(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := c.Client.GetObject(ctx, c.ResumeBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio get object %q: %w", objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("minio read object %q: %w", objectName, err)
	}
	return data, nil
}

// PutObject uploads an object to the resume bucket
func (c *MinIOClient) PutObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := c.Client.PutObject(ctx, c.ResumeBucket, objectName, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("minio put object %q: %w", objectName, err)
	}
	return nil
}
