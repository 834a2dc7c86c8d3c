package biz

import (
	"context"
	"io"
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// DefaultMaxExtractBytes 参与文本提取的最大字节数
const DefaultMaxExtractBytes int64 = 20 << 20

// TextExtractor 文本提取器（按内容选择解析器）
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractionUseCase 异步文本提取，不影响上传路径
type ExtractionUseCase struct {
	repo      ArtifactRepo
	blobs     BlobStore
	extractor TextExtractor
	maxBytes  int64
	logger    *logger.Logger
}

// NewExtractionUseCase 创建文本提取用例
func NewExtractionUseCase(repo ArtifactRepo, blobs BlobStore, extractor TextExtractor, maxBytes int64, log *logger.Logger) *ExtractionUseCase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxExtractBytes
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ExtractionUseCase{repo: repo, blobs: blobs, extractor: extractor, maxBytes: maxBytes, logger: log}
}

// Extract 读取 blob、提取文本并写回 extracted_text。记录已删除时返回 NotFound
func (uc *ExtractionUseCase) Extract(ctx context.Context, id string) error {
	const op = "extract"

	a, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return metadataError(op, id, err)
	}

	rc, err := uc.blobs.Get(ctx, a.StorageKey)
	if err != nil {
		return storageError(op, a.StorageKey, err)
	}
	data, err := io.ReadAll(io.LimitReader(rc, uc.maxBytes))
	rc.Close()
	if err != nil {
		return storageError(op, a.StorageKey, err)
	}

	text, err := uc.extractor.Extract(ctx, data)
	if err != nil {
		return &Error{Kind: KindValidation, Op: op, ID: id, Err: err}
	}
	text = sanitizeText(text)

	if err := uc.repo.UpdateExtractedText(ctx, id, text); err != nil {
		return metadataError(op, id, err)
	}

	uc.logger.WithContext(ctx).Info("text extracted",
		zap.String("id", id),
		zap.Int("chars", len(text)),
	)
	return nil
}

// sanitizeText 去除无效 UTF-8 与 NUL，PostgreSQL text 列不接受 NUL
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}
