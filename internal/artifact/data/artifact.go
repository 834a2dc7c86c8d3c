package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	"gorm.io/datatypes"
)

// ArtifactPO 文件元数据数据库模型
type ArtifactPO struct {
	ID            string                      `gorm:"column:id;size:36;primarykey"`
	DisplayName   string                      `gorm:"column:display_name;size:512;not null"`
	StorageKey    string                      `gorm:"column:storage_key;size:512;not null;uniqueIndex:idx_artifact_storage_key"`
	ByteSize      int64                       `gorm:"column:byte_size;not null"`
	MIMEType      string                      `gorm:"column:mime_type;size:128;not null"`
	Category      string                      `gorm:"column:category;size:100;index:idx_artifact_category"`
	Tags          datatypes.JSONSlice[string] `gorm:"column:tags"`
	ExtractedText string                      `gorm:"column:extracted_text;type:text"`
	CreatedAt     time.Time                   `gorm:"column:created_at;not null;index:idx_artifact_created_at"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;not null"`
}

func (ArtifactPO) TableName() string {
	return "artifacts"
}

// ArtifactRepo 文件元数据仓储实现
type ArtifactRepo struct {
	db *database.DB
}

// NewArtifactRepo 创建文件元数据仓储
func NewArtifactRepo(db *database.DB) *ArtifactRepo {
	return &ArtifactRepo{db: db}
}

// Create 写入记录，回填 ID 与时间戳
func (r *ArtifactRepo) Create(ctx context.Context, a *types.Artifact) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	po := &ArtifactPO{
		ID:          a.ID,
		DisplayName: a.DisplayName,
		StorageKey:  a.StorageKey,
		ByteSize:    a.ByteSize,
		MIMEType:    a.MIMEType,
		Category:    a.Category,
		Tags:        datatypes.JSONSlice[string](a.Tags),
		CreatedAt:   a.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).GetDB().Create(po).Error; err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	a.CreatedAt = po.CreatedAt
	a.UpdatedAt = po.UpdatedAt
	return nil
}

// GetByID 根据 ID 获取
func (r *ArtifactRepo) GetByID(ctx context.Context, id string) (*types.Artifact, error) {
	var po ArtifactPO
	err := r.db.WithContext(ctx).GetDB().Where("id = ?", id).First(&po).Error
	if database.IsRecordNotFoundError(err) {
		return nil, biz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return toArtifact(&po), nil
}

// Delete 删除记录，记录不存在不报错
func (r *ArtifactRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).GetDB().Where("id = ?", id).Delete(&ArtifactPO{}).Error; err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// List 分页列表，created_at 倒序、id 升序
func (r *ArtifactRepo) List(ctx context.Context, f *types.ArtifactFilter, page, pageSize int) ([]*types.Artifact, int64, error) {
	query := r.db.WithContext(ctx).GetDB().Model(&ArtifactPO{}).Scopes(
		searchScope(f.Search, "display_name", "category"),
		database.WhereIf(f.Category != "", "category = ?", f.Category),
		containsAllScope(r.db.Dialect(), "tags", f.Tags),
		dateRangeScope("created_at", f.Created),
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count artifacts: %w", err)
	}

	var pos []ArtifactPO
	err := query.
		Omit("extracted_text").
		Scopes(
			database.OrderBy("created_at", true),
			database.OrderBy("id", false),
			database.Paginate(page, pageSize),
		).
		Find(&pos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list artifacts: %w", err)
	}

	items := make([]*types.Artifact, len(pos))
	for i := range pos {
		items[i] = toArtifact(&pos[i])
	}
	return items, total, nil
}

// UpdateExtractedText 写回提取文本
func (r *ArtifactRepo) UpdateExtractedText(ctx context.Context, id, text string) error {
	return r.updateColumn(ctx, id, "extracted_text", text)
}

// UpdateByteSize 修正文件大小
func (r *ArtifactRepo) UpdateByteSize(ctx context.Context, id string, size int64) error {
	return r.updateColumn(ctx, id, "byte_size", size)
}

func (r *ArtifactRepo) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	result := r.db.WithContext(ctx).GetDB().
		Model(&ArtifactPO{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{column: value, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("failed to update artifact %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrNotFound
	}
	return nil
}

// ListStorageKeys 全部存储键
func (r *ArtifactRepo) ListStorageKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).GetDB().Model(&ArtifactPO{}).Pluck("storage_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list storage keys: %w", err)
	}
	return keys, nil
}

func toArtifact(po *ArtifactPO) *types.Artifact {
	return &types.Artifact{
		ID:            po.ID,
		DisplayName:   po.DisplayName,
		StorageKey:    po.StorageKey,
		ByteSize:      po.ByteSize,
		MIMEType:      po.MIMEType,
		Category:      po.Category,
		Tags:          []string(po.Tags),
		ExtractedText: po.ExtractedText,
		CreatedAt:     po.CreatedAt,
		UpdatedAt:     po.UpdatedAt,
	}
}
