package biz

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var keyExtPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// KeyGenerator 生成存储键：{prefix}/{yyyy}/{mm}/{unixMillis}-{uuid}{ext}
// 键只取原文件名的扩展名，避免特殊字符进入路径
type KeyGenerator struct {
	now   func() time.Time
	token func() string
}

// NewKeyGenerator 创建存储键生成器
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{
		now:   time.Now,
		token: uuid.NewString,
	}
}

// New 为指定前缀和原始文件名生成新键
func (g *KeyGenerator) New(prefix, displayName string) string {
	now := g.now().UTC()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(displayName)), ".")
	if keyExtPattern.MatchString(ext) {
		ext = "." + ext
	} else {
		ext = ""
	}
	name := fmt.Sprintf("%d-%s%s", now.UnixMilli(), g.token(), ext)
	return path.Join(prefix, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), name)
}

// KeyTimestamp 解析键中的毫秒时间戳
func KeyTimestamp(key string) (time.Time, bool) {
	base := path.Base(key)
	i := strings.IndexByte(base, '-')
	if i <= 0 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(base[:i], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
