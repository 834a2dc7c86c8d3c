package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// GuidanceUseCase 指南库维护（离线导入）
type GuidanceUseCase struct {
	repo    GuidanceRepo
	options OptionsCache
	logger  *logger.Logger
}

// NewGuidanceUseCase 创建指南用例
func NewGuidanceUseCase(repo GuidanceRepo, options OptionsCache, log *logger.Logger) *GuidanceUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &GuidanceUseCase{repo: repo, options: options, logger: log}
}

// Import 按 id 批量 upsert，成功后使过滤器缓存失效
func (uc *GuidanceUseCase) Import(ctx context.Context, docs []*types.Guidance) error {
	const op = "import_guidance"

	for i, d := range docs {
		if strings.TrimSpace(d.Title) == "" {
			return validationError(op, fmt.Errorf("record %d: title is required", i))
		}
		if !d.Status.Valid() {
			return validationError(op, fmt.Errorf("record %d: invalid status %q", i, d.Status))
		}
		if d.IssueDate.IsZero() {
			return validationError(op, fmt.Errorf("record %d: issue date is required", i))
		}
	}
	if len(docs) == 0 {
		return nil
	}

	if err := uc.repo.Upsert(ctx, docs); err != nil {
		return &Error{Kind: KindMetadata, Op: op, Err: err}
	}

	if uc.options != nil {
		if err := uc.options.Invalidate(ctx); err != nil {
			uc.logger.WithContext(ctx).Warn("failed to invalidate option cache", zap.Error(err))
		}
	}
	uc.logger.WithContext(ctx).Info("guidance imported", zap.Int("count", len(docs)))
	return nil
}
