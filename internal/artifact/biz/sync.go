package biz

import (
	"context"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// SyncOptions 跨存储操作的超时设置
type SyncOptions struct {
	BlobTimeout         time.Duration
	MetadataTimeout     time.Duration
	CompensationTimeout time.Duration
}

// DefaultSyncOptions 默认超时
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		BlobTimeout:         60 * time.Second,
		MetadataTimeout:     10 * time.Second,
		CompensationTimeout: 30 * time.Second,
	}
}

// syncer 执行 blob 与元数据的有序写入与补偿
type syncer struct {
	blobs   BlobStore
	journal ReconciliationJournal
	opts    SyncOptions
	logger  *logger.Logger
	now     func() time.Time
}

func newSyncer(blobs BlobStore, journal ReconciliationJournal, opts SyncOptions, log *logger.Logger) *syncer {
	if log == nil {
		log = logger.NewNop()
	}
	return &syncer{blobs: blobs, journal: journal, opts: opts, logger: log, now: time.Now}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// create 先写 blob 再写元数据。put 为 nil 表示没有 blob（外部地址模板）。
// blob 写入成功后元数据失败或调用被取消，都会补偿删除 blob
func (s *syncer) create(ctx context.Context, op, key string, put, insert func(ctx context.Context) error) error {
	lg := s.logger.WithContext(ctx)

	if put != nil {
		bctx, cancel := withTimeout(ctx, s.opts.BlobTimeout)
		err := put(bctx)
		cancel()
		if err != nil {
			lg.Warn("blob put failed",
				zap.String("op", op),
				zap.String("storage_key", key),
				zap.Bool("timeout", isTimeout(err)),
				zap.Error(err),
			)
			return storageError(op, key, err)
		}
	}

	err := ctx.Err()
	if err == nil {
		mctx, cancel := withTimeout(ctx, s.opts.MetadataTimeout)
		err = insert(mctx)
		cancel()
	}
	if err == nil {
		return nil
	}

	merr := &Error{Kind: KindMetadata, Op: op, StorageKey: key, Err: err}
	lg.Warn("metadata insert failed",
		zap.String("op", op),
		zap.String("storage_key", key),
		zap.Bool("timeout", isTimeout(err)),
		zap.Error(err),
	)
	if put == nil {
		return merr
	}

	if cerr := s.removeBlob(ctx, key); cerr != nil {
		merr.Warning = s.warn(ctx, op, key, cerr)
	} else {
		lg.Info("compensating blob delete succeeded", zap.String("op", op), zap.String("storage_key", key))
	}
	return merr
}

// removeBlob 不受调用方取消影响
func (s *syncer) removeBlob(ctx context.Context, key string) error {
	cctx, cancel := withTimeout(context.WithoutCancel(ctx), s.opts.CompensationTimeout)
	defer cancel()
	return s.blobs.Delete(cctx, key)
}

// warn 生成对账警告，记录 error 日志并写入对账日志
func (s *syncer) warn(ctx context.Context, op, key string, err error) *ReconciliationWarning {
	w := &ReconciliationWarning{Op: op, StorageKey: key, Err: err}
	s.logger.WithContext(ctx).Error("reconciliation required",
		zap.String("op", op),
		zap.String("storage_key", key),
		zap.Error(err),
	)
	s.record(ctx, w)
	return w
}

func (s *syncer) record(ctx context.Context, w *ReconciliationWarning) {
	if s.journal == nil {
		return
	}
	jctx, cancel := withTimeout(context.WithoutCancel(ctx), s.opts.CompensationTimeout)
	defer cancel()

	entry := JournalEntry{
		Op:         w.Op,
		StorageKey: w.StorageKey,
		Reason:     w.Err.Error(),
		RecordedAt: s.now().UTC(),
	}
	if err := s.journal.Record(jctx, entry); err != nil {
		s.logger.WithContext(ctx).Warn("failed to append reconciliation journal",
			zap.String("storage_key", w.StorageKey),
			zap.Error(err),
		)
	}
}
