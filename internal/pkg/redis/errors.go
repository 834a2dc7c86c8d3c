package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	ErrNil            = redis.Nil // key 不存在或列表为空
	ErrNotInitialized = errors.New("redis: client not initialized")
)

// IsNil 判断是否是 key 不存在错误
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// logFailure 记录命令失败，redis.Nil 属于正常结果不记录
func (c *Client) logFailure(cmd string, err error, keys ...string) {
	if err == nil || IsNil(err) {
		return
	}
	c.logger.Error("redis command failed",
		zap.String("cmd", cmd),
		zap.Strings("keys", keys),
		zap.Error(err),
	)
}
