package data

import (
	"context"
	"fmt"
	"io"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	pkgminio "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/minio"
)

// MinIOBlobStore 基于 MinIO 的 biz.BlobStore 实现
type MinIOBlobStore struct {
	client *pkgminio.Client
	bucket string
}

// NewMinIOBlobStore 创建 MinIO blob 存储
func NewMinIOBlobStore(client *pkgminio.Client, bucket string) *MinIOBlobStore {
	return &MinIOBlobStore{client: client, bucket: bucket}
}

// Put 上传对象
func (s *MinIOBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, pkgminio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Get 打开对象
func (s *MinIOBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, _, err := s.client.GetObject(ctx, s.bucket, key)
	if pkgminio.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", biz.ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return rc, nil
}

// Delete 删除对象
func (s *MinIOBlobStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key); err != nil && !pkgminio.IsNotFound(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List 递归列出前缀下的对象
func (s *MinIOBlobStore) List(ctx context.Context, prefix string) ([]biz.BlobInfo, error) {
	objCh, errCh := s.client.ListObjects(ctx, s.bucket, prefix)

	var out []biz.BlobInfo
	for obj := range objCh {
		out = append(out, biz.BlobInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return out, nil
}
