package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	pkgredis "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/redis"
)

const (
	// OptionsCacheKey 指南过滤器可选值缓存
	OptionsCacheKey = "cache:guidance:options"
	// JournalKey 对账日志列表
	JournalKey = "list:artifact:reconcile"
)

// RedisOptionsCache 基于 Redis 的 biz.OptionsCache 实现
type RedisOptionsCache struct {
	rdb *pkgredis.Client
	ttl time.Duration
}

// NewRedisOptionsCache 创建过滤器缓存
func NewRedisOptionsCache(rdb *pkgredis.Client, ttl time.Duration) *RedisOptionsCache {
	return &RedisOptionsCache{rdb: rdb, ttl: ttl}
}

// Get 未命中返回 (nil, nil)
func (c *RedisOptionsCache) Get(ctx context.Context) (*types.FilterOptions, error) {
	raw, err := c.rdb.Get(ctx, OptionsCacheKey)
	if pkgredis.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var opts types.FilterOptions
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("failed to decode cached options: %w", err)
	}
	return &opts, nil
}

// Set 写入缓存
func (c *RedisOptionsCache) Set(ctx context.Context, opts *types.FilterOptions) error {
	b, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	return c.rdb.Set(ctx, OptionsCacheKey, b, c.ttl)
}

// Invalidate 删除缓存
func (c *RedisOptionsCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.Del(ctx, OptionsCacheKey)
	return err
}

// RedisJournal 基于 Redis 列表的 biz.ReconciliationJournal 实现
type RedisJournal struct {
	rdb *pkgredis.Client
}

// NewRedisJournal 创建对账日志
func NewRedisJournal(rdb *pkgredis.Client) *RedisJournal {
	return &RedisJournal{rdb: rdb}
}

// Record 追加条目
func (j *RedisJournal) Record(ctx context.Context, entry biz.JournalEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	_, err = j.rdb.LPush(ctx, JournalKey, b)
	return err
}

// Pending 按写入顺序返回全部条目
func (j *RedisJournal) Pending(ctx context.Context) ([]biz.JournalEntry, error) {
	raws, err := j.rdb.LRange(ctx, JournalKey, 0, -1)
	if err != nil {
		return nil, err
	}
	entries := make([]biz.JournalEntry, 0, len(raws))
	for i := len(raws) - 1; i >= 0; i-- {
		var e biz.JournalEntry
		if err := json.Unmarshal([]byte(raws[i]), &e); err != nil {
			return nil, fmt.Errorf("failed to decode journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Resolve 移除条目
func (j *RedisJournal) Resolve(ctx context.Context, entry biz.JournalEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}
	_, err = j.rdb.LRem(ctx, JournalKey, 1, b)
	return err
}
