package loader

import (
	"context"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// TextLoader 纯文本加载器
type TextLoader struct{}

// NewTextLoader 创建纯文本加载器
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load 原样返回
func (l *TextLoader) Load(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}

// SupportedTypes 返回支持的文件类型
func (l *TextLoader) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeTxt}
}
