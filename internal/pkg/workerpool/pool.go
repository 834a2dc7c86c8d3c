package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolClosed = errors.New("worker pool is closed")
	ErrPanicked   = errors.New("task panicked")
)

// Config Worker Pool 配置
type Config struct {
	Workers int // 并发 worker 数量
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{Workers: 8}
}

// Statistics 统计信息
type Statistics struct {
	Submitted int64
	Completed int64
	Failed    int64
}

// Pool 基于 ants 的有界并发池，收集每个任务的错误
type Pool struct {
	pool *ants.Pool

	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	closed atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	logger *logger.Logger
}

// New 创建 Worker Pool
func New(config *Config, log *logger.Logger) (*Pool, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.NewNop()
	}
	size := config.Workers
	if size <= 0 {
		size = DefaultConfig().Workers
	}

	p := &Pool{logger: log}
	antsPool, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v interface{}) {
			log.Error("worker panic", zap.Any("error", v))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}
	p.pool = antsPool
	return p, nil
}

// Submit 提交任务，池满时阻塞。ctx 已取消时任务不执行并记为失败
func (p *Pool) Submit(ctx context.Context, name string, task func(ctx context.Context) error) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.submitted.Add(1)
	p.wg.Add(1)
	err := p.pool.Submit(func() {
		defer p.wg.Done()
		p.run(ctx, name, task)
	})
	if err != nil {
		p.wg.Done()
		p.submitted.Add(-1)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

func (p *Pool) run(ctx context.Context, name string, task func(ctx context.Context) error) {
	var err error
	defer func() {
		if v := recover(); v != nil {
			p.logger.Error("worker panic", zap.String("task", name), zap.Any("error", v))
			err = fmt.Errorf("%w: %v", ErrPanicked, v)
		}
		if err != nil {
			p.failed.Add(1)
			p.mu.Lock()
			p.errs = append(p.errs, fmt.Errorf("%s: %w", name, err))
			p.mu.Unlock()
			return
		}
		p.completed.Add(1)
	}()

	if err = ctx.Err(); err != nil {
		return
	}
	err = task(ctx)
}

// Wait 等待已提交任务全部结束，返回合并后的错误
func (p *Pool) Wait() error {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// Running 获取运行中的 worker 数量
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Stats 获取统计信息
func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Shutdown 等待任务结束后释放池
func (p *Pool) Shutdown() {
	if p.closed.Swap(true) {
		return
	}
	p.wg.Wait()
	p.pool.Release()
}
