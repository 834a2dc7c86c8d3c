package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	pkgredis "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/redis"
	"go.uber.org/zap"
)

const (
	ExtractQueue  = "queue:artifact:extract"
	ExtractingSet = "set:artifact:extracting"
)

// ExtractTask 文本提取任务
type ExtractTask struct {
	ArtifactID string `json:"artifact_id"`
	RetryCount int    `json:"retry_count"`
}

// Processor 任务处理器，通常是 biz.ExtractionUseCase
type Processor interface {
	Extract(ctx context.Context, id string) error
}

// Options Worker 配置
type Options struct {
	WorkerCount  int
	PollInterval time.Duration
	MaxRetries   int
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{WorkerCount: 2, PollInterval: time.Second, MaxRetries: 3}
}

// Worker 文本提取 Worker
type Worker struct {
	redis     *pkgredis.Client
	processor Processor
	logger    *logger.Logger
	opts      Options

	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewWorker 创建 Worker
func NewWorker(redis *pkgredis.Client, processor Processor, opts Options, log *logger.Logger) *Worker {
	def := DefaultOptions()
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = def.WorkerCount
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = def.MaxRetries
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Worker{
		redis:     redis,
		processor: processor,
		logger:    log,
		opts:      opts,
		stopCh:    make(chan struct{}),
	}
}

// Start 启动 Worker
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker already running")
	}

	w.running = true
	w.logger.Info("starting extraction workers", zap.Int("worker_count", w.opts.WorkerCount))

	for i := 0; i < w.opts.WorkerCount; i++ {
		w.wg.Add(1)
		go w.processLoop(ctx, i)
	}
	return nil
}

// Stop 停止 Worker，等待进行中的任务结束
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.logger.Info("stopping extraction workers")
	close(w.stopCh)
	w.wg.Wait()
	w.running = false
	w.stopCh = make(chan struct{})
	w.logger.Info("all extraction workers stopped")
}

// EnqueueArtifact 将文件加入提取队列
func (w *Worker) EnqueueArtifact(ctx context.Context, artifactID string) error {
	return w.push(ctx, &ExtractTask{ArtifactID: artifactID})
}

func (w *Worker) push(ctx context.Context, task *ExtractTask) error {
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if _, err := w.redis.LPush(ctx, ExtractQueue, string(taskJSON)); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

func (w *Worker) processLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()

	log := w.logger.With(zap.Int("worker_id", workerID))
	log.Debug("extraction worker started")

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 队列有积压时连续处理，直到取空
			for w.processOnce(ctx, log) {
				select {
				case <-w.stopCh:
					return
				case <-ctx.Done():
					return
				default:
				}
			}
		}
	}
}

// processOnce 取出并处理一个任务，队列为空时返回 false
func (w *Worker) processOnce(ctx context.Context, log *logger.Logger) bool {
	taskJSON, err := w.redis.RPop(ctx, ExtractQueue)
	if err != nil {
		if !pkgredis.IsNil(err) {
			log.Warn("failed to pop extraction task", zap.Error(err))
		}
		return false
	}

	var task ExtractTask
	if err := json.Unmarshal([]byte(taskJSON), &task); err != nil {
		log.Error("failed to unmarshal task", zap.Error(err))
		return true
	}

	w.processTask(ctx, &task, log)
	return true
}

func (w *Worker) processTask(ctx context.Context, task *ExtractTask, log *logger.Logger) {
	log = log.With(zap.String("artifact_id", task.ArtifactID))

	if _, err := w.redis.SAdd(ctx, ExtractingSet, task.ArtifactID); err != nil {
		log.Warn("failed to mark artifact as extracting", zap.Error(err))
	}
	err := w.processor.Extract(ctx, task.ArtifactID)
	_, _ = w.redis.SRem(ctx, ExtractingSet, task.ArtifactID)

	if err == nil {
		return
	}

	switch biz.KindOf(err) {
	case biz.KindNotFound:
		log.Info("artifact removed before extraction, skipping")
		return
	case biz.KindValidation:
		log.Warn("text extraction not possible", zap.Error(err))
		return
	}

	if task.RetryCount >= w.opts.MaxRetries {
		log.Error("text extraction failed after max retries",
			zap.Error(err),
			zap.Int("retry_count", task.RetryCount))
		return
	}

	task.RetryCount++
	if perr := w.push(ctx, task); perr != nil {
		log.Error("failed to re-enqueue extraction task", zap.Error(perr))
		return
	}
	log.Warn("text extraction failed, re-enqueued",
		zap.Error(err),
		zap.Int("retry_count", task.RetryCount))
}

// QueueSize 待处理任务数
func (w *Worker) QueueSize(ctx context.Context) (int64, error) {
	return w.redis.LLen(ctx, ExtractQueue)
}

// InFlight 处理中的任务数
func (w *Worker) InFlight(ctx context.Context) (int64, error) {
	return w.redis.SCard(ctx, ExtractingSet)
}
