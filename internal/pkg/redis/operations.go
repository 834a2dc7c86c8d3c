package redis

import (
	"context"
	"time"
)

// ==================== String Operations ====================

// Set 设置键值（支持过期时间）
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := c.rdb.Set(ctx, key, value, expiration).Err()
	c.logFailure("set", err, key)
	return err
}

// Get 获取键值，key 不存在时返回 ErrNil
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	c.logFailure("get", err, key)
	return val, err
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	c.logFailure("del", err, keys...)
	return n, err
}

// ==================== List Operations ====================

// LPush 从列表左侧插入元素
func (c *Client) LPush(ctx context.Context, key string, values ...interface{}) (int64, error) {
	n, err := c.rdb.LPush(ctx, key, values...).Result()
	c.logFailure("lpush", err, key)
	return n, err
}

// RPop 从列表右侧弹出元素，列表为空时返回 ErrNil
func (c *Client) RPop(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.RPop(ctx, key).Result()
	c.logFailure("rpop", err, key)
	return val, err
}

// LLen 获取列表长度
func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.LLen(ctx, key).Result()
	c.logFailure("llen", err, key)
	return n, err
}

// LRange 获取列表指定范围的元素
func (c *Client) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := c.rdb.LRange(ctx, key, start, stop).Result()
	c.logFailure("lrange", err, key)
	return vals, err
}

// LRem 删除列表中等于 value 的元素
func (c *Client) LRem(ctx context.Context, key string, count int64, value interface{}) (int64, error) {
	n, err := c.rdb.LRem(ctx, key, count, value).Result()
	c.logFailure("lrem", err, key)
	return n, err
}

// ==================== Set Operations ====================

// SAdd 向集合添加成员
func (c *Client) SAdd(ctx context.Context, key string, members ...interface{}) (int64, error) {
	n, err := c.rdb.SAdd(ctx, key, members...).Result()
	c.logFailure("sadd", err, key)
	return n, err
}

// SRem 从集合删除成员
func (c *Client) SRem(ctx context.Context, key string, members ...interface{}) (int64, error) {
	n, err := c.rdb.SRem(ctx, key, members...).Result()
	c.logFailure("srem", err, key)
	return n, err
}

// SCard 获取集合成员数量
func (c *Client) SCard(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.SCard(ctx, key).Result()
	c.logFailure("scard", err, key)
	return n, err
}
