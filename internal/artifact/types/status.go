package types

import (
	"path/filepath"
	"strings"
)

// FileType 允许上传的文件类型
type FileType string

const (
	FileTypePdf  FileType = "pdf"
	FileTypeDoc  FileType = "doc"
	FileTypeDocx FileType = "docx"
	FileTypeTxt  FileType = "txt"
)

var mimeTypes = map[FileType]string{
	FileTypePdf:  "application/pdf",
	FileTypeDoc:  "application/msword",
	FileTypeDocx: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FileTypeTxt:  "text/plain",
}

// Valid 检查文件类型是否有效
func (ft FileType) Valid() bool {
	_, ok := mimeTypes[ft]
	return ok
}

// MIMEType 返回文件类型对应的 MIME 类型
func (ft FileType) MIMEType() string {
	if m, ok := mimeTypes[ft]; ok {
		return m
	}
	return "application/octet-stream"
}

// String 返回字符串表示
func (ft FileType) String() string {
	return string(ft)
}

// FileTypeFromName 根据文件名扩展名推断文件类型
func FileTypeFromName(name string) FileType {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return FileType(ext)
}

// GuidanceStatus 指南文件状态
type GuidanceStatus string

const (
	GuidanceStatusFinal GuidanceStatus = "Final"
	GuidanceStatusDraft GuidanceStatus = "Draft"
)

// Valid 检查状态是否有效
func (s GuidanceStatus) Valid() bool {
	switch s {
	case GuidanceStatusFinal, GuidanceStatusDraft:
		return true
	}
	return false
}

// String 返回字符串表示
func (s GuidanceStatus) String() string {
	return string(s)
}

// 分类
const (
	CategorySafetyAlert = "Safety Alert"
	CategoryApproval    = "Approval"
	CategoryGuidance    = "Guidance"
	CategoryInspection  = "Inspection"
	CategoryGeneral     = "General"
)

// 存储键前缀
const (
	PrefixDocuments = "documents"
	PrefixTemplates = "templates"
)
