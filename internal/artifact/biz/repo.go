package biz

import (
	"context"
	"io"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// BlobStore 对象存储适配器接口（MinIO / S3）
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get 键不存在时返回 ErrBlobNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 键不存在时返回 nil
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// BlobInfo 对象信息
type BlobInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// KeySource 列出元数据引用的全部存储键
type KeySource interface {
	ListStorageKeys(ctx context.Context) ([]string, error)
}

// ArtifactRepo 文件元数据仓储接口
type ArtifactRepo interface {
	KeySource
	// Create 写入记录，ID 为空时由仓储分配
	Create(ctx context.Context, artifact *types.Artifact) error
	// GetByID 不存在时返回 ErrNotFound
	GetByID(ctx context.Context, id string) (*types.Artifact, error)
	// Delete 记录不存在时返回 nil
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *types.ArtifactFilter, page, pageSize int) ([]*types.Artifact, int64, error)
	UpdateExtractedText(ctx context.Context, id, text string) error
	UpdateByteSize(ctx context.Context, id string, size int64) error
}

// TemplateRepo 模板仓储接口
type TemplateRepo interface {
	KeySource
	Create(ctx context.Context, tpl *types.Template) error
	GetByID(ctx context.Context, id string) (*types.Template, error)
	List(ctx context.Context, filter *types.TemplateFilter, page, pageSize int) ([]*types.Template, int64, error)
	// IncrementDownloadCount 服务端原子自增
	IncrementDownloadCount(ctx context.Context, id string) error
}

// GuidanceRepo 指南仓储接口
type GuidanceRepo interface {
	List(ctx context.Context, filter *types.GuidanceFilter, page, pageSize int) ([]*types.Guidance, int64, error)
	Upsert(ctx context.Context, docs []*types.Guidance) error
	// Options 全量数据上的去重投影，与过滤条件无关
	Options(ctx context.Context) (*types.FilterOptions, error)
	Stats(ctx context.Context) (*types.GuidanceStats, error)
}

// OptionsCache 过滤器可选值缓存，未命中返回 (nil, nil)
type OptionsCache interface {
	Get(ctx context.Context) (*types.FilterOptions, error)
	Set(ctx context.Context, opts *types.FilterOptions) error
	Invalidate(ctx context.Context) error
}

// JournalEntry 对账日志条目
type JournalEntry struct {
	Op         string    `json:"op"`
	StorageKey string    `json:"storage_key"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ReconciliationJournal 记录需要离线处理的分歧
type ReconciliationJournal interface {
	Record(ctx context.Context, entry JournalEntry) error
	Pending(ctx context.Context) ([]JournalEntry, error)
	Resolve(ctx context.Context, entry JournalEntry) error
}
