package biz

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// ReconcileTarget 一组对账对象：blob 前缀与引用它的元数据
type ReconcileTarget struct {
	Name   string
	Prefix string
	Blobs  BlobStore
	Keys   KeySource
}

// ReconcileReport 对账结果
type ReconcileReport struct {
	Target       string     `json:"target"`
	BlobsScanned int        `json:"blobs_scanned"`
	RowsScanned  int        `json:"rows_scanned"`
	Orphans      []BlobInfo `json:"orphans"`
	Recent       []BlobInfo `json:"recent"`
	Dangling     []string   `json:"dangling"`
	Deleted      []string   `json:"deleted"`
	Failed       []string   `json:"failed"`

	prefix     string
	present    map[string]bool
	referenced map[string]bool
}

// Reconciler 离线对账：找出孤儿 blob 与悬空元数据
type Reconciler struct {
	journal ReconciliationJournal
	grace   time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

// NewReconciler 创建对账器。grace 内的孤儿 blob 可能属于进行中的上传，不做处理
func NewReconciler(journal ReconciliationJournal, grace time.Duration, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{journal: journal, grace: grace, now: time.Now, logger: log}
}

// Run 扫描一个目标。apply 为 true 时删除超出宽限期的孤儿 blob；悬空行只报告
func (r *Reconciler) Run(ctx context.Context, target ReconcileTarget, apply bool) (*ReconcileReport, error) {
	const op = "reconcile"

	prefix := strings.TrimSuffix(target.Prefix, "/") + "/"
	blobs, err := target.Blobs.List(ctx, prefix)
	if err != nil {
		return nil, storageError(op, prefix, err)
	}
	keys, err := target.Keys.ListStorageKeys(ctx)
	if err != nil {
		return nil, &Error{Kind: KindMetadata, Op: op, Err: err}
	}

	report := &ReconcileReport{
		Target:     target.Name,
		prefix:     prefix,
		present:    make(map[string]bool, len(blobs)),
		referenced: make(map[string]bool, len(keys)),
	}
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			report.referenced[k] = true
		}
	}
	report.RowsScanned = len(report.referenced)
	report.BlobsScanned = len(blobs)

	cutoff := r.now().Add(-r.grace)
	for _, b := range blobs {
		report.present[b.Key] = true
		if report.referenced[b.Key] {
			continue
		}
		written, ok := KeyTimestamp(b.Key)
		if !ok {
			written = b.LastModified
		}
		if written.After(cutoff) {
			report.Recent = append(report.Recent, b)
			continue
		}
		report.Orphans = append(report.Orphans, b)
	}
	for k := range report.referenced {
		if !report.present[k] {
			report.Dangling = append(report.Dangling, k)
		}
	}
	sort.Strings(report.Dangling)

	lg := r.logger.WithContext(ctx)
	for _, k := range report.Dangling {
		lg.Error("integrity violation: metadata references missing blob",
			zap.String("target", target.Name),
			zap.String("storage_key", k),
		)
	}

	if apply {
		for _, b := range report.Orphans {
			if err := target.Blobs.Delete(ctx, b.Key); err != nil {
				lg.Warn("failed to delete orphan blob", zap.String("storage_key", b.Key), zap.Error(err))
				report.Failed = append(report.Failed, b.Key)
				continue
			}
			delete(report.present, b.Key)
			report.Deleted = append(report.Deleted, b.Key)
		}
	}

	lg.Info("reconciliation scan finished",
		zap.String("target", target.Name),
		zap.Int("blobs", report.BlobsScanned),
		zap.Int("rows", report.RowsScanned),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("dangling", len(report.Dangling)),
		zap.Int("deleted", len(report.Deleted)),
		zap.Bool("apply", apply),
	)
	return report, nil
}

// DrainJournal 移除已确认一致的对账日志：blob 存在与否和元数据引用一致。
// blob 已删但行仍在的悬挂记录保持待处理
func (r *Reconciler) DrainJournal(ctx context.Context, reports ...*ReconcileReport) (int, error) {
	if r.journal == nil {
		return 0, nil
	}
	entries, err := r.journal.Pending(ctx)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, e := range entries {
		rep := reportFor(reports, e.StorageKey)
		if rep == nil {
			continue
		}
		consistent := rep.present[e.StorageKey] == rep.referenced[e.StorageKey]
		if !consistent {
			continue
		}
		if err := r.journal.Resolve(ctx, e); err != nil {
			return resolved, err
		}
		resolved++
	}
	r.logger.WithContext(ctx).Info("reconciliation journal drained",
		zap.Int("pending", len(entries)),
		zap.Int("resolved", resolved),
	)
	return resolved, nil
}

func reportFor(reports []*ReconcileReport, key string) *ReconcileReport {
	for _, rep := range reports {
		if rep != nil && strings.HasPrefix(key, rep.prefix) {
			return rep
		}
	}
	return nil
}
