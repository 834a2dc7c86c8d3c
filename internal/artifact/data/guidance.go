package data

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GuidancePO 指南数据库模型
type GuidancePO struct {
	ID           string    `gorm:"column:id;size:64;primarykey"`
	Title        string    `gorm:"column:title;size:512;not null"`
	Description  string    `gorm:"column:description;type:text"`
	IssueDate    time.Time `gorm:"column:issue_date;not null;index:idx_guidance_issue_date"`
	Organization string    `gorm:"column:organization;size:255;index:idx_guidance_org"`
	ByteSize     int64     `gorm:"column:byte_size;not null;default:0"`
	Status       string    `gorm:"column:status;size:16;not null;index:idx_guidance_status"`

	Topics              datatypes.JSONSlice[string] `gorm:"column:topics"`
	CommentPeriodCloses *time.Time                  `gorm:"column:comment_period_closes"`
	RegulatoryPathways  datatypes.JSONSlice[string] `gorm:"column:regulatory_pathways"`
	DeviceClass         string                      `gorm:"column:device_class;size:32"`
	URL                 string                      `gorm:"column:url;size:1024"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (GuidancePO) TableName() string {
	return "guidance_documents"
}

// GuidanceRepo 指南仓储实现
type GuidanceRepo struct {
	db *database.DB
}

// NewGuidanceRepo 创建指南仓储
func NewGuidanceRepo(db *database.DB) *GuidanceRepo {
	return &GuidanceRepo{db: db}
}

// List issue_date 倒序、id 升序
func (r *GuidanceRepo) List(ctx context.Context, f *types.GuidanceFilter, page, pageSize int) ([]*types.Guidance, int64, error) {
	query := r.db.WithContext(ctx).GetDB().Model(&GuidancePO{}).Scopes(
		searchScope(f.Search, "title", "description"),
		database.WhereIf(f.Status != "", "status = ?", f.Status),
		database.WhereIf(f.Organization != "", "organization = ?", f.Organization),
		containsAllScope(r.db.Dialect(), "topics", f.Topics),
		dateRangeScope("issue_date", f.IssueDate),
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count guidance: %w", err)
	}

	var pos []GuidancePO
	err := query.Scopes(
		database.OrderBy("issue_date", true),
		database.OrderBy("id", false),
		database.Paginate(page, pageSize),
	).Find(&pos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list guidance: %w", err)
	}

	items := make([]*types.Guidance, len(pos))
	for i := range pos {
		items[i] = toGuidance(&pos[i])
	}
	return items, total, nil
}

// Upsert 按 id 插入或整体覆盖
func (r *GuidanceRepo) Upsert(ctx context.Context, docs []*types.Guidance) error {
	if len(docs) == 0 {
		return nil
	}
	pos := make([]*GuidancePO, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		pos[i] = fromGuidance(d)
	}

	// 整批导入要么全部生效要么全部回滚
	err := r.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).CreateInBatches(pos, upsertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to upsert guidance: %w", err)
	}
	return nil
}

const upsertBatchSize = 200

var upsertColumns = []string{
	"title", "description", "issue_date", "organization", "byte_size", "status",
	"topics", "comment_period_closes", "regulatory_pathways", "device_class", "url",
}

// Options 全量去重投影，话题展开后排序去重
func (r *GuidanceRepo) Options(ctx context.Context) (*types.FilterOptions, error) {
	db := r.db.WithContext(ctx).GetDB()
	opts := &types.FilterOptions{}

	if err := db.Model(&GuidancePO{}).Distinct("status").Order("status").Pluck("status", &opts.Statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	if err := db.Model(&GuidancePO{}).Distinct("organization").Where("organization <> ''").
		Order("organization").Pluck("organization", &opts.Organizations).Error; err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	var topicRows []datatypes.JSONSlice[string]
	if err := db.Model(&GuidancePO{}).Pluck("topics", &topicRows).Error; err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	seen := make(map[string]bool)
	opts.Topics = []string{}
	for _, row := range topicRows {
		for _, topic := range row {
			if topic != "" && !seen[topic] {
				seen[topic] = true
				opts.Topics = append(opts.Topics, topic)
			}
		}
	}
	sort.Strings(opts.Topics)

	if opts.Statuses == nil {
		opts.Statuses = []string{}
	}
	if opts.Organizations == nil {
		opts.Organizations = []string{}
	}
	return opts, nil
}

type statsRow struct {
	Total int64
	Final int64
	Draft int64
}

// Stats 总数与各状态数量
func (r *GuidanceRepo) Stats(ctx context.Context) (*types.GuidanceStats, error) {
	var row statsRow
	err := r.db.WithContext(ctx).GetDB().Model(&GuidancePO{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS final, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS draft",
			types.GuidanceStatusFinal.String(), types.GuidanceStatusDraft.String(),
		).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute guidance stats: %w", err)
	}
	return &types.GuidanceStats{Total: row.Total, Final: row.Final, Draft: row.Draft}, nil
}

func fromGuidance(d *types.Guidance) *GuidancePO {
	return &GuidancePO{
		ID:                  d.ID,
		Title:               d.Title,
		Description:         d.Description,
		IssueDate:           d.IssueDate.UTC(),
		Organization:        d.Organization,
		ByteSize:            d.ByteSize,
		Status:              d.Status.String(),
		Topics:              datatypes.JSONSlice[string](d.Topics),
		CommentPeriodCloses: d.CommentPeriodCloses,
		RegulatoryPathways:  datatypes.JSONSlice[string](d.RegulatoryPathways),
		DeviceClass:         d.DeviceClass,
		URL:                 d.URL,
		CreatedAt:           d.CreatedAt.UTC(),
	}
}

func toGuidance(po *GuidancePO) *types.Guidance {
	return &types.Guidance{
		ID:                  po.ID,
		Title:               po.Title,
		Description:         po.Description,
		IssueDate:           po.IssueDate,
		Organization:        po.Organization,
		ByteSize:            po.ByteSize,
		Status:              types.GuidanceStatus(po.Status),
		Topics:              []string(po.Topics),
		CommentPeriodCloses: po.CommentPeriodCloses,
		RegulatoryPathways:  []string(po.RegulatoryPathways),
		DeviceClass:         po.DeviceClass,
		URL:                 po.URL,
		CreatedAt:           po.CreatedAt,
	}
}
