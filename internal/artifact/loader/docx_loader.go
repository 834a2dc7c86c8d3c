package loader

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// DOCXLoader Word 文档加载器
type DOCXLoader struct{}

// NewDOCXLoader 创建 Word 文档加载器
func NewDOCXLoader() *DOCXLoader {
	return &DOCXLoader{}
}

// Load 提取正文段落与表格文本，每段一行
func (l *DOCXLoader) Load(_ context.Context, data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX document: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(it.String())
			sb.WriteString("\n")
		case *docx.Table:
			writeTable(&sb, it)
		}
	}
	return sb.String(), nil
}

func writeTable(sb *strings.Builder, t *docx.Table) {
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				parts = append(parts, p.String())
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteString("\n")
	}
}

// SupportedTypes 返回支持的文件类型
func (l *DOCXLoader) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeDocx}
}
