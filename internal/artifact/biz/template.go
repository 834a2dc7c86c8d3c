package biz

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// TemplateUseCase 模板用例
type TemplateUseCase struct {
	repo   TemplateRepo
	sync   *syncer
	keys   *KeyGenerator
	logger *logger.Logger
}

// TemplateImport 模板导入请求。Content 为空时 DownloadURL 必须是外部地址
type TemplateImport struct {
	Template   *types.Template
	Content    io.Reader
	Size       int64
	SourceName string
}

// NewTemplateUseCase 创建模板用例
func NewTemplateUseCase(repo TemplateRepo, blobs BlobStore, journal ReconciliationJournal, opts SyncOptions, log *logger.Logger) *TemplateUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	return &TemplateUseCase{
		repo:   repo,
		sync:   newSyncer(blobs, journal, opts, log),
		keys:   NewKeyGenerator(),
		logger: log,
	}
}

// Get 获取模板
func (uc *TemplateUseCase) Get(ctx context.Context, id string) (*types.Template, error) {
	mctx, cancel := withTimeout(ctx, uc.sync.opts.MetadataTimeout)
	defer cancel()

	t, err := uc.repo.GetByID(mctx, id)
	if err != nil {
		return nil, metadataError("get_template", id, err)
	}
	return t, nil
}

// Download 外部地址返回重定向目标，内部存储返回 blob 内容
func (uc *TemplateUseCase) Download(ctx context.Context, id string) (*types.TemplateDownload, error) {
	const op = "download_template"

	t, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.DownloadURL.IsExternal() {
		return &types.TemplateDownload{RedirectURL: t.DownloadURL.URL()}, nil
	}
	if t.DownloadURL.IsZero() {
		return nil, &Error{Kind: KindStorage, Op: op, ID: id, Err: ErrBlobMissing}
	}

	rc, err := fetchBlob(ctx, uc.sync, op, id, t.DownloadURL.StorageKey())
	if err != nil {
		return nil, err
	}
	name := t.SuggestedFileName()
	return &types.TemplateDownload{
		DownloadResult: types.DownloadResult{
			Content:  rc,
			FileName: name,
			MIMEType: types.FileTypeFromName(name).MIMEType(),
			Size:     t.ByteSize,
		},
	}, nil
}

// IncrementDownloadCount 尽力而为，失败只记录日志
func (uc *TemplateUseCase) IncrementDownloadCount(ctx context.Context, id string) {
	mctx, cancel := withTimeout(ctx, uc.sync.opts.MetadataTimeout)
	defer cancel()

	if err := uc.repo.IncrementDownloadCount(mctx, id); err != nil {
		uc.logger.WithContext(ctx).Warn("failed to increment template download count",
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// Import 导入模板，内部文件按上传同样的写入补偿顺序处理
func (uc *TemplateUseCase) Import(ctx context.Context, in *TemplateImport) (*types.Template, error) {
	const op = "import_template"

	t := in.Template
	if t == nil || strings.TrimSpace(t.Title) == "" {
		return nil, validationError(op, fmt.Errorf("%w: title is required", ErrInvalidTemplate))
	}
	if t.CompletenessScore < 0 || t.CompletenessScore > 100 {
		return nil, validationError(op, fmt.Errorf("%w: completeness score %d out of range", ErrInvalidTemplate, t.CompletenessScore))
	}

	insert := func(ctx context.Context) error { return uc.repo.Create(ctx, t) }

	if in.Content == nil {
		if !t.DownloadURL.IsExternal() {
			return nil, validationError(op, fmt.Errorf("%w: internal template requires content", ErrInvalidTemplate))
		}
		if err := uc.sync.create(ctx, op, "", nil, insert); err != nil {
			return nil, err
		}
		return t, nil
	}

	if in.Size <= 0 {
		return nil, validationError(op, ErrEmptyFile)
	}
	source := in.SourceName
	if source == "" {
		source = t.SuggestedFileName()
	}
	ft := types.FileTypeFromName(source)
	if t.FileFormat == "" && ft.Valid() {
		t.FileFormat = strings.ToUpper(ft.String())
	}

	key := uc.keys.New(types.PrefixTemplates, source)
	t.DownloadURL = types.StorageTarget(key)
	t.ByteSize = in.Size

	err := uc.sync.create(ctx, op, key,
		func(ctx context.Context) error {
			return uc.sync.blobs.Put(ctx, key, in.Content, in.Size, ft.MIMEType())
		},
		insert,
	)
	if err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("template imported",
		zap.String("id", t.ID),
		zap.String("storage_key", key),
	)
	return t, nil
}
