package loader

import (
	"context"
	"errors"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// ErrUnsupported 无法识别或不支持提取的内容
var ErrUnsupported = errors.New("unsupported content type")

// Loader 文本提取器接口
type Loader interface {
	// Load 从文件内容中提取纯文本
	Load(ctx context.Context, data []byte) (string, error)

	// SupportedTypes 返回支持的文件类型
	SupportedTypes() []types.FileType
}
