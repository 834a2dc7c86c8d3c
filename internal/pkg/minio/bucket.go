package minio

import (
	"context"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// MakeBucket creates a new bucket
func (c *Client) MakeBucket(ctx context.Context, bucketName, region string) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if err := ValidateBucketName(bucketName); err != nil {
		return WrapError("MakeBucket", ErrInvalidBucketName, bucketName, "")
	}

	if err := c.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: region}); err != nil {
		return WrapError("MakeBucket", err, bucketName, "")
	}

	c.logger.Info("bucket created successfully", zap.String("bucket", bucketName))
	return nil
}

// BucketExists checks if a bucket exists
func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if err := c.checkClosed(); err != nil {
		return false, err
	}

	exists, err := c.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, WrapError("BucketExists", err, bucketName, "")
	}
	return exists, nil
}

// ListObjects lists objects under prefix recursively
func (c *Client) ListObjects(ctx context.Context, bucketName, prefix string) (<-chan ObjectInfo, <-chan error) {
	objCh := make(chan ObjectInfo)
	errCh := make(chan error, 1)

	go func() {
		defer close(objCh)
		defer close(errCh)

		if err := c.checkClosed(); err != nil {
			errCh <- err
			return
		}

		opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
		for object := range c.client.ListObjects(ctx, bucketName, opts) {
			if object.Err != nil {
				errCh <- WrapError("ListObjects", object.Err, bucketName, "")
				return
			}

			select {
			case objCh <- ObjectInfo{
				Key:          object.Key,
				Size:         object.Size,
				ETag:         object.ETag,
				ContentType:  object.ContentType,
				LastModified: object.LastModified,
			}:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return objCh, errCh
}
