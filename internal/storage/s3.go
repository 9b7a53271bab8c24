// Package storage talks to the S3-compatible bucket holding product images.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	coreconfig "github.com/m3rciful/teleshop/core/config"
	"github.com/m3rciful/teleshop/core/logger"
)

// Client stores and removes image blobs in one bucket. It works with any
// S3-compatible backend (AWS S3, MinIO, Supabase Storage, etc.).
type Client struct {
	s3      *s3.Client
	bucket  string
	baseURL string
}

// New builds a storage client from configuration.
func New(cfg coreconfig.StorageConfig) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}

	return &Client{s3: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// EnsureBucket creates the bucket when it does not exist yet. Call it once
// during startup.
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	_, err = c.s3.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	logger.Info(ctx, "storage", "bucket.created", slog.String("bucket", c.bucket))
	return nil
}

// Put uploads a blob under the given key and returns its public URL.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	logger.Debug(ctx, "storage", "object.put",
		slog.String("bucket", c.bucket),
		slog.String("key", key),
		slog.Int("size_bytes", len(data)),
	)
	return c.PublicURL(key), nil
}

// Remove deletes a blob by key.
func (c *Client) Remove(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// RemoveByURL deletes the blob a public URL refers to. URLs outside the
// client's public base are left alone.
func (c *Client) RemoveByURL(ctx context.Context, ref string) error {
	key := c.KeyFromURL(ref)
	if key == "" {
		return nil
	}
	return c.Remove(ctx, key)
}

// PublicURL returns the public URL for a stored key.
func (c *Client) PublicURL(key string) string {
	return c.baseURL + "/" + key
}

// KeyFromURL extracts the storage key from a public URL issued by this
// client. It returns "" when the URL does not belong to the bucket.
func (c *Client) KeyFromURL(ref string) string {
	if rest, ok := strings.CutPrefix(ref, c.baseURL+"/"); ok {
		return rest
	}
	return ""
}
