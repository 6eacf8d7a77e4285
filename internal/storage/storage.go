package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/washtrack/washtrack/internal/config"
)

// ObjectInfo describes one stored object, as much of it as the cleanup
// sweep needs.
type ObjectInfo struct {
	Key          string
	LastModified time.Time
}

// ObjectStore is the narrow surface of the external object storage this
// service depends on. The production implementation talks to any
// S3-compatible endpoint; tests substitute an in-memory fake.
type ObjectStore interface {
	// PresignPut mints a time-limited write URL for key.
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	// PresignGet mints a time-limited read URL for key.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Remove deletes a single object. Missing objects are not an error.
	Remove(ctx context.Context, key string) error
	// List returns every object under prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	// RemoveAll bulk-deletes the given keys.
	RemoveAll(ctx context.Context, keys []string) error
}

// Client implements ObjectStore against an S3-compatible endpoint.
type Client struct {
	mc     *minio.Client
	bucket string
}

var _ ObjectStore = (*Client)(nil)

func NewClient(cfg config.StorageConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket}, nil
}

func (c *Client) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.mc.PresignedPutObject(ctx, c.bucket, key, expiry)
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}

	return u.String(), nil
}

func (c *Client) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.mc.PresignedGetObject(ctx, c.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}

	return u.String(), nil
}

func (c *Client) Remove(ctx context.Context, key string) error {
	if err := c.mc.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}

func (c *Client) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, obj.Err)
		}
		out = append(out, ObjectInfo{Key: obj.Key, LastModified: obj.LastModified})
	}

	return out, nil
}

func (c *Client) RemoveAll(ctx context.Context, keys []string) error {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objectsCh <- minio.ObjectInfo{Key: k}
	}
	close(objectsCh)

	for rerr := range c.mc.RemoveObjects(ctx, c.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("bulk remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}

	return nil
}
