package data

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	"gorm.io/gorm"
)

// TemplatePO 模板数据库模型
type TemplatePO struct {
	ID          string `gorm:"column:id;size:36;primarykey"`
	Title       string `gorm:"column:title;size:255;not null"`
	Description string `gorm:"column:description;type:text"`
	Category    string `gorm:"column:category;size:100;index:idx_tpl_category"`
	Region      string `gorm:"column:region;size:100"`

	Authority    string `gorm:"column:authority;size:100;index:idx_tpl_authority"`
	Jurisdiction string `gorm:"column:jurisdiction;size:100;index:idx_tpl_jurisdiction"`
	CountryCode  string `gorm:"column:country_code;size:8"`
	CountryFlag  string `gorm:"column:country_flag;size:16"`

	// 存储键或外部绝对 URL
	DownloadURL string `gorm:"column:download_url;size:1024;not null"`
	FileName    string `gorm:"column:file_name;size:255"`
	ByteSize    int64  `gorm:"column:byte_size;not null;default:0"`
	FileFormat  string `gorm:"column:file_format;size:16"`
	Version     string `gorm:"column:version;size:32"`

	EffectiveDate *time.Time `gorm:"column:effective_date"`
	LastUpdated   *time.Time `gorm:"column:last_updated"`

	CompletenessScore int   `gorm:"column:completeness_score;not null;default:0"`
	IsOfficial        bool  `gorm:"column:is_official;not null;default:false"`
	IsFeatured        bool  `gorm:"column:is_featured;not null;default:false;index:idx_tpl_featured"`
	DownloadCount     int64 `gorm:"column:download_count;not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (TemplatePO) TableName() string {
	return "global_templates"
}

// TemplateRepo 模板仓储实现
type TemplateRepo struct {
	db *database.DB
}

// NewTemplateRepo 创建模板仓储
func NewTemplateRepo(db *database.DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

// Create 创建模板
func (r *TemplateRepo) Create(ctx context.Context, t *types.Template) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	po := fromTemplate(t)
	if err := r.db.WithContext(ctx).GetDB().Create(po).Error; err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	t.CreatedAt = po.CreatedAt
	return nil
}

// GetByID 根据 ID 获取
func (r *TemplateRepo) GetByID(ctx context.Context, id string) (*types.Template, error) {
	var po TemplatePO
	err := r.db.WithContext(ctx).GetDB().Where("id = ?", id).First(&po).Error
	if database.IsRecordNotFoundError(err) {
		return nil, biz.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return toTemplate(&po), nil
}

// List 推荐优先，其后按创建时间倒序
func (r *TemplateRepo) List(ctx context.Context, f *types.TemplateFilter, page, pageSize int) ([]*types.Template, int64, error) {
	query := r.db.WithContext(ctx).GetDB().Model(&TemplatePO{}).Scopes(
		searchScope(f.Search, "title", "description"),
		database.WhereIf(f.Category != "", "category = ?", f.Category),
		database.WhereIf(f.Authority != "", "authority = ?", f.Authority),
		database.WhereIf(f.Jurisdiction != "", "jurisdiction = ?", f.Jurisdiction),
		database.WhereIf(f.OfficialOnly, "is_official = ?", true),
		database.WhereIf(f.FeaturedOnly, "is_featured = ?", true),
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	var pos []TemplatePO
	err := query.Scopes(
		database.OrderBy("is_featured", true),
		database.OrderBy("created_at", true),
		database.OrderBy("id", false),
		database.Paginate(page, pageSize),
	).Find(&pos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}

	items := make([]*types.Template, len(pos))
	for i := range pos {
		items[i] = toTemplate(&pos[i])
	}
	return items, total, nil
}

// IncrementDownloadCount 服务端原子自增，避免读改写丢失
func (r *TemplateRepo) IncrementDownloadCount(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).GetDB().
		Model(&TemplatePO{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment download count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrNotFound
	}
	return nil
}

// ListStorageKeys 内部模板的存储键，外部 URL 不计入
func (r *TemplateRepo) ListStorageKeys(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).GetDB().Model(&TemplatePO{}).Pluck("download_url", &urls).Error; err != nil {
		return nil, fmt.Errorf("failed to list template keys: %w", err)
	}
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		if k := types.ParseDownloadTarget(u).StorageKey(); k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func fromTemplate(t *types.Template) *TemplatePO {
	return &TemplatePO{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Category:          t.Category,
		Region:            t.Region,
		Authority:         t.Authority,
		Jurisdiction:      t.Jurisdiction,
		CountryCode:       t.CountryCode,
		CountryFlag:       t.CountryFlag,
		DownloadURL:       t.DownloadURL.String(),
		FileName:          t.FileName,
		ByteSize:          t.ByteSize,
		FileFormat:        t.FileFormat,
		Version:           t.Version,
		EffectiveDate:     t.EffectiveDate,
		LastUpdated:       t.LastUpdated,
		CompletenessScore: t.CompletenessScore,
		IsOfficial:        t.IsOfficial,
		IsFeatured:        t.IsFeatured,
		DownloadCount:     t.DownloadCount,
		CreatedAt:         t.CreatedAt.UTC(),
	}
}

func toTemplate(po *TemplatePO) *types.Template {
	return &types.Template{
		ID:                po.ID,
		Title:             po.Title,
		Description:       po.Description,
		Category:          po.Category,
		Region:            po.Region,
		Authority:         po.Authority,
		Jurisdiction:      po.Jurisdiction,
		CountryCode:       po.CountryCode,
		CountryFlag:       po.CountryFlag,
		DownloadURL:       types.ParseDownloadTarget(po.DownloadURL),
		FileName:          po.FileName,
		ByteSize:          po.ByteSize,
		FileFormat:        po.FileFormat,
		Version:           po.Version,
		EffectiveDate:     po.EffectiveDate,
		LastUpdated:       po.LastUpdated,
		CompletenessScore: po.CompletenessScore,
		IsOfficial:        po.IsOfficial,
		IsFeatured:        po.IsFeatured,
		DownloadCount:     po.DownloadCount,
		CreatedAt:         po.CreatedAt,
	}
}
