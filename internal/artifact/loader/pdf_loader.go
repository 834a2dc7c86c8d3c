package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// PDFLoader PDF 加载器（go-fitz/MuPDF）
type PDFLoader struct{}

// NewPDFLoader 创建 PDF 加载器
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load 逐页提取文本，页间空行分隔，无法提取的页跳过
func (l *PDFLoader) Load(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// SupportedTypes 返回支持的文件类型
func (l *PDFLoader) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypePdf}
}
