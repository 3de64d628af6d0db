// Package minio wraps object storage access for source files staged remotely.
package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/medgraph/loader/internal/config"
)

type Client struct {
	mc     *minio.Client
	bucket string
}

func NewClient(cfg config.MinIOConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

// DownloadTo fetches an object into a local file, creating or truncating it.
func (c *Client) DownloadTo(ctx context.Context, objectName, path string) error {
	if err := c.mc.FGetObject(ctx, c.bucket, objectName, path, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download %s from %s: %w", objectName, c.bucket, err)
	}
	return nil
}

// Exists reports whether the object is present in the bucket.
func (c *Client) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := c.mc.StatObject(ctx, c.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s in %s: %w", objectName, c.bucket, err)
	}
	return true, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}
