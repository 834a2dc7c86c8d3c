package biz

import (
	"context"
	"fmt"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// DefaultMaxPageSize 单页最大条数
const DefaultMaxPageSize = 100

// QueryUseCase 列表查询用例，只访问元数据，从不触达 blob
type QueryUseCase struct {
	artifacts   ArtifactRepo
	templates   TemplateRepo
	guidance    GuidanceRepo
	options     OptionsCache
	maxPageSize int
	logger      *logger.Logger
}

// NewQueryUseCase 创建查询用例，options 可为 nil
func NewQueryUseCase(
	artifacts ArtifactRepo,
	templates TemplateRepo,
	guidance GuidanceRepo,
	options OptionsCache,
	maxPageSize int,
	log *logger.Logger,
) *QueryUseCase {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &QueryUseCase{
		artifacts:   artifacts,
		templates:   templates,
		guidance:    guidance,
		options:     options,
		maxPageSize: maxPageSize,
		logger:      log,
	}
}

// MaxPageSize 单页最大条数
func (uc *QueryUseCase) MaxPageSize() int {
	return uc.maxPageSize
}

func (uc *QueryUseCase) checkPage(op string, page, pageSize int) error {
	if page < 1 || pageSize < 1 || pageSize > uc.maxPageSize {
		return validationError(op, fmt.Errorf("%w: page=%d page_size=%d (max %d)", ErrInvalidPage, page, pageSize, uc.maxPageSize))
	}
	return nil
}

// ListArtifacts 文件列表，默认按 created_at 倒序、id 升序
func (uc *QueryUseCase) ListArtifacts(ctx context.Context, filter types.ArtifactFilter, page, pageSize int) (*types.Page[*types.Artifact], error) {
	const op = "list_artifacts"
	if err := uc.checkPage(op, page, pageSize); err != nil {
		return nil, err
	}
	if !filter.Created.Valid() {
		return nil, validationError(op, ErrInvalidRange)
	}

	items, total, err := uc.artifacts.List(ctx, &filter, page, pageSize)
	if err != nil {
		uc.logQueryFailure(ctx, op, err)
		return nil, queryError(op, err)
	}
	return newPage(items, total, page, pageSize), nil
}

// ListTemplates 模板列表，推荐优先
func (uc *QueryUseCase) ListTemplates(ctx context.Context, filter types.TemplateFilter, page, pageSize int) (*types.Page[*types.Template], error) {
	const op = "list_templates"
	if err := uc.checkPage(op, page, pageSize); err != nil {
		return nil, err
	}

	items, total, err := uc.templates.List(ctx, &filter, page, pageSize)
	if err != nil {
		uc.logQueryFailure(ctx, op, err)
		return nil, queryError(op, err)
	}
	return newPage(items, total, page, pageSize), nil
}

// ListGuidance 指南列表，按 issue_date 倒序、id 升序
func (uc *QueryUseCase) ListGuidance(ctx context.Context, filter types.GuidanceFilter, page, pageSize int) (*types.Page[*types.Guidance], error) {
	const op = "list_guidance"
	if err := uc.checkPage(op, page, pageSize); err != nil {
		return nil, err
	}
	if !filter.IssueDate.Valid() {
		return nil, validationError(op, ErrInvalidRange)
	}

	items, total, err := uc.guidance.List(ctx, &filter, page, pageSize)
	if err != nil {
		uc.logQueryFailure(ctx, op, err)
		return nil, queryError(op, err)
	}
	return newPage(items, total, page, pageSize), nil
}

// GuidanceOptions 过滤器可选值，优先读缓存，缓存故障不影响结果
func (uc *QueryUseCase) GuidanceOptions(ctx context.Context) (*types.FilterOptions, error) {
	const op = "guidance_options"
	lg := uc.logger.WithContext(ctx)

	if uc.options != nil {
		cached, err := uc.options.Get(ctx)
		if err != nil {
			lg.Warn("option cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	opts, err := uc.guidance.Options(ctx)
	if err != nil {
		uc.logQueryFailure(ctx, op, err)
		return nil, queryError(op, err)
	}

	if uc.options != nil {
		if err := uc.options.Set(ctx, opts); err != nil {
			lg.Warn("option cache write failed", zap.Error(err))
		}
	}
	return opts, nil
}

// GuidanceStats 指南统计
func (uc *QueryUseCase) GuidanceStats(ctx context.Context) (*types.GuidanceStats, error) {
	const op = "guidance_stats"

	stats, err := uc.guidance.Stats(ctx)
	if err != nil {
		uc.logQueryFailure(ctx, op, err)
		return nil, queryError(op, err)
	}
	return stats, nil
}

func (uc *QueryUseCase) logQueryFailure(ctx context.Context, op string, err error) {
	uc.logger.WithContext(ctx).Error("query failed", zap.String("op", op), zap.Error(err))
}

// TotalPages ceil(total / pageSize)
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func newPage[T any](items []T, total int64, page, pageSize int) *types.Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	return &types.Page[T]{
		Items:      items,
		TotalCount: total,
		TotalPages: TotalPages(total, pageSize),
		Page:       page,
		PageSize:   pageSize,
	}
}
