package biz

import (
	"fmt"
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// DefaultMaxUploadSize 默认上传大小上限 50 MiB
const DefaultMaxUploadSize int64 = 50 << 20

// UploadPolicy 上传白名单，所有检查均在 I/O 之前执行
type UploadPolicy struct {
	maxSize int64
	allowed map[types.FileType]bool
}

// NewUploadPolicy 创建上传策略，extensions 形如 ".pdf" 或 "pdf"
func NewUploadPolicy(maxSize int64, extensions []string) (*UploadPolicy, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	p := &UploadPolicy{maxSize: maxSize, allowed: make(map[types.FileType]bool)}
	for _, ext := range extensions {
		ft := types.FileType(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), "."))
		if !ft.Valid() {
			return nil, fmt.Errorf("unsupported upload extension %q", ext)
		}
		p.allowed[ft] = true
	}
	if len(p.allowed) == 0 {
		for _, ft := range []types.FileType{types.FileTypePdf, types.FileTypeDoc, types.FileTypeDocx, types.FileTypeTxt} {
			p.allowed[ft] = true
		}
	}
	return p, nil
}

// MaxSize 返回大小上限
func (p *UploadPolicy) MaxSize() int64 {
	return p.maxSize
}

// Check 校验文件名与大小，返回解析出的文件类型
func (p *UploadPolicy) Check(displayName string, size int64) (types.FileType, error) {
	if strings.TrimSpace(displayName) == "" {
		return "", ErrEmptyName
	}
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if size > p.maxSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, p.maxSize)
	}
	ft := types.FileTypeFromName(displayName)
	if !p.allowed[ft] {
		return "", fmt.Errorf("%w: %q", ErrFileType, displayName)
	}
	return ft, nil
}
