package biz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// ArtifactUseCase 文件同步用例：保证 blob 与元数据行同生共灭
type ArtifactUseCase struct {
	repo   ArtifactRepo
	sync   *syncer
	policy *UploadPolicy
	keys   *KeyGenerator
	logger *logger.Logger
}

// DeleteOutcome 删除结果
type DeleteOutcome struct {
	// Existed 为 false 表示记录已不存在（幂等删除）
	Existed bool
	// BlobErr blob 删除失败，元数据仍已删除
	BlobErr error
}

// NewArtifactUseCase 创建文件同步用例
func NewArtifactUseCase(
	repo ArtifactRepo,
	blobs BlobStore,
	journal ReconciliationJournal,
	policy *UploadPolicy,
	opts SyncOptions,
	log *logger.Logger,
) *ArtifactUseCase {
	if log == nil {
		log = logger.NewNop()
	}
	if policy == nil {
		policy, _ = NewUploadPolicy(DefaultMaxUploadSize, nil)
	}
	return &ArtifactUseCase{
		repo:   repo,
		sync:   newSyncer(blobs, journal, opts, log),
		policy: policy,
		keys:   NewKeyGenerator(),
		logger: log,
	}
}

// Upload 上传文件：生成键 → 写 blob → 写元数据，元数据失败时补偿删除 blob
func (uc *ArtifactUseCase) Upload(ctx context.Context, req *types.UploadRequest) (*types.Artifact, error) {
	const op = "upload"

	ft, err := uc.policy.Check(req.DisplayName, req.Size)
	if err != nil {
		return nil, validationError(op, err)
	}
	if req.Content == nil {
		return nil, validationError(op, ErrEmptyFile)
	}

	key := uc.keys.New(types.PrefixDocuments, req.DisplayName)
	artifact := &types.Artifact{
		DisplayName: req.DisplayName,
		StorageKey:  key,
		ByteSize:    req.Size,
		MIMEType:    ft.MIMEType(),
		Category:    strings.TrimSpace(req.Category),
		Tags:        req.Tags,
	}
	if artifact.Category == "" {
		artifact.Category = InferCategory(req.DisplayName)
	}
	if len(artifact.Tags) == 0 {
		artifact.Tags = InferTags(req.DisplayName)
	}

	err = uc.sync.create(ctx, op, key,
		func(ctx context.Context) error {
			return uc.sync.blobs.Put(ctx, key, req.Content, req.Size, artifact.MIMEType)
		},
		func(ctx context.Context) error {
			return uc.repo.Create(ctx, artifact)
		},
	)
	if err != nil {
		return nil, err
	}

	uc.logger.WithContext(ctx).Info("artifact uploaded",
		zap.String("id", artifact.ID),
		zap.String("storage_key", key),
		zap.Int64("size", artifact.ByteSize),
	)
	return artifact, nil
}

// Get 获取文件元数据
func (uc *ArtifactUseCase) Get(ctx context.Context, id string) (*types.Artifact, error) {
	mctx, cancel := withTimeout(ctx, uc.sync.opts.MetadataTimeout)
	defer cancel()

	a, err := uc.repo.GetByID(mctx, id)
	if err != nil {
		return nil, metadataError("get", id, err)
	}
	return a, nil
}

// Delete 删除文件。记录不存在视为成功；blob 删除失败只记录，不阻止元数据删除
func (uc *ArtifactUseCase) Delete(ctx context.Context, id string) (*DeleteOutcome, error) {
	const op = "delete"
	lg := uc.logger.WithContext(ctx)

	a, err := uc.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		lg.Debug("artifact already deleted", zap.String("id", id))
		return &DeleteOutcome{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &DeleteOutcome{Existed: true}

	bctx, cancel := withTimeout(ctx, uc.sync.opts.BlobTimeout)
	err = uc.sync.blobs.Delete(bctx, a.StorageKey)
	cancel()
	if err != nil {
		out.BlobErr = storageError(op, a.StorageKey, err)
		lg.Warn("blob delete failed, removing metadata anyway",
			zap.String("id", id),
			zap.String("storage_key", a.StorageKey),
			zap.Error(err),
		)
		uc.sync.record(ctx, &ReconciliationWarning{Op: op, StorageKey: a.StorageKey, Err: err})
	}

	mctx, cancel := withTimeout(ctx, uc.sync.opts.MetadataTimeout)
	err = uc.repo.Delete(mctx, id)
	cancel()
	if err != nil && !errors.Is(err, ErrNotFound) {
		merr := &Error{Kind: KindMetadata, Op: op, ID: id, StorageKey: a.StorageKey, Err: err}
		if out.BlobErr == nil {
			// 行仍在但 blob 已删除
			merr.Warning = uc.sync.warn(ctx, op, a.StorageKey, err)
		}
		return nil, merr
	}

	lg.Info("artifact deleted",
		zap.String("id", id),
		zap.String("storage_key", a.StorageKey),
		zap.Bool("blob_removed", out.BlobErr == nil),
	)
	return out, nil
}

// Download 返回 blob 内容与原始文件名
func (uc *ArtifactUseCase) Download(ctx context.Context, id string) (*types.DownloadResult, error) {
	a, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rc, err := fetchBlob(ctx, uc.sync, "download", id, a.StorageKey)
	if err != nil {
		return nil, err
	}
	return &types.DownloadResult{
		Content:  rc,
		FileName: a.DisplayName,
		MIMEType: a.MIMEType,
		Size:     a.ByteSize,
	}, nil
}

// CorrectByteSize 读取 blob 实际大小，与记录不一致时修正
func (uc *ArtifactUseCase) CorrectByteSize(ctx context.Context, id string) (int64, error) {
	const op = "correct_size"

	a, err := uc.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	rc, err := fetchBlob(ctx, uc.sync, op, id, a.StorageKey)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return 0, storageError(op, a.StorageKey, err)
	}
	if n == a.ByteSize {
		return n, nil
	}

	mctx, cancel := withTimeout(ctx, uc.sync.opts.MetadataTimeout)
	defer cancel()
	if err := uc.repo.UpdateByteSize(mctx, id, n); err != nil {
		return 0, metadataError(op, id, err)
	}
	uc.logger.WithContext(ctx).Info("artifact size corrected",
		zap.String("id", id),
		zap.Int64("recorded", a.ByteSize),
		zap.Int64("actual", n),
	)
	return n, nil
}

// fetchBlob 元数据存在而 blob 缺失时按完整性问题上报
func fetchBlob(ctx context.Context, s *syncer, op, id, key string) (io.ReadCloser, error) {
	rc, err := s.blobs.Get(ctx, key)
	if err == nil {
		return rc, nil
	}
	if errors.Is(err, ErrBlobNotFound) {
		s.logger.WithContext(ctx).Error("integrity violation: metadata references missing blob",
			zap.String("op", op),
			zap.String("id", id),
			zap.String("storage_key", key),
		)
		return nil, &Error{Kind: KindStorage, Op: op, ID: id, StorageKey: key, Err: fmt.Errorf("%w: %w", ErrBlobMissing, err)}
	}
	return nil, &Error{Kind: KindStorage, Op: op, ID: id, StorageKey: key, Err: err}
}
