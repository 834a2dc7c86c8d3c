package loader

import (
	"context"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// Factory 按内容嗅探结果选择 Loader，实现 biz.TextExtractor
type Factory struct {
	loaders map[types.FileType]Loader
}

// NewFactory 创建 Loader 工厂
func NewFactory() *Factory {
	f := &Factory{loaders: make(map[types.FileType]Loader)}
	f.register(NewTextLoader())
	f.register(NewPDFLoader())
	f.register(NewDOCXLoader())
	return f
}

func (f *Factory) register(l Loader) {
	for _, ft := range l.SupportedTypes() {
		f.loaders[ft] = l
	}
}

// CreateLoader 根据文件类型获取 Loader
func (f *Factory) CreateLoader(ft types.FileType) (Loader, error) {
	l, ok := f.loaders[ft]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ft)
	}
	return l, nil
}

// Detect 通过内容而非扩展名识别文件类型，无法识别返回空
func Detect(data []byte) types.FileType {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is(types.FileTypePdf.MIMEType()):
			return types.FileTypePdf
		case m.Is(types.FileTypeDocx.MIMEType()):
			return types.FileTypeDocx
		case m.Is(types.FileTypeDoc.MIMEType()):
			return types.FileTypeDoc
		case m.Is(types.FileTypeTxt.MIMEType()):
			return types.FileTypeTxt
		}
	}
	return ""
}

// Extract 嗅探内容并提取文本
func (f *Factory) Extract(ctx context.Context, data []byte) (string, error) {
	ft := Detect(data)
	if ft == "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mimetype.Detect(data).String())
	}
	l, err := f.CreateLoader(ft)
	if err != nil {
		return "", err
	}
	return l.Load(ctx, data)
}
