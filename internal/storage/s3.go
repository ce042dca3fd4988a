// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// catalog assets: thumbnails, gallery images, and downloadable files.
// It wraps the AWS SDK v2 and is configured for path-style access
// (required by CEPH/Hetzner/MinIO).
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Client wraps an S3 client for catalog asset operations on the content
// bucket. Removals can target other buckets too, because historical rows
// may point at objects that were uploaded to a different bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for the content bucket
}

// New creates an S3 storage client with path-style addressing.
// Returns (nil, nil) if endpoint or credentials are empty, allowing the
// app to start without storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}

	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores an object in the content bucket with public-read ACL so
// it can be served directly. Uploads are single-shot: a failure is
// terminal for the call and the caller decides whether to redo it.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Remove deletes an object from the given bucket. S3 DeleteObject
// succeeds for keys that no longer exist, which makes Remove idempotent:
// manual removal and the deletion cascade can race benignly.
func (c *Client) Remove(ctx context.Context, bucket, key string) error {
	if bucket == "" {
		bucket = c.bucket
	}
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// RemoveBatch deletes a group of objects from one bucket in a single
// call. Like Remove, already-gone keys are not an error.
func (c *Client) RemoveBatch(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if bucket == "" {
		bucket = c.bucket
	}

	objects := make([]s3types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		objects = append(objects, s3types.ObjectIdentifier{Key: aws.String(k)})
	}

	_, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("s3 delete batch %s (%d objects): %w", bucket, len(keys), err)
	}
	return nil
}

// FileURL returns the public URL for a key in the content bucket.
// Uses the configured public URL if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// Bucket returns the name of the content bucket.
func (c *Client) Bucket() string {
	return c.bucket
}

// ParseLocator resolves a stored locator into a (bucket, key) pair.
// Rows created through this service store a raw key; older rows store a
// public URL instead, and some of those URLs point at a bucket other
// than the content bucket. Returns ok=false when the locator cannot be
// mapped to any object under this endpoint.
func (c *Client) ParseLocator(raw string) (bucket, key string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}

	// No scheme: treat it as a key in the content bucket.
	if !strings.Contains(raw, "://") {
		return c.bucket, strings.TrimPrefix(raw, "/"), true
	}

	// CDN or custom-domain URL for the content bucket.
	if c.publicURL != "" {
		prefix := c.publicURL + "/"
		if strings.HasPrefix(raw, prefix) {
			return c.bucket, raw[len(prefix):], true
		}
	}

	// Path-style endpoint URL: endpoint/{bucket}/{key}. The first path
	// segment is the bucket name, which may differ from the default.
	prefix := c.endpoint + "/"
	if strings.HasPrefix(raw, prefix) {
		rest := raw[len(prefix):]
		slash := strings.IndexByte(rest, '/')
		if slash <= 0 || slash == len(rest)-1 {
			return "", "", false
		}
		return rest[:slash], rest[slash+1:], true
	}

	return "", "", false
}
