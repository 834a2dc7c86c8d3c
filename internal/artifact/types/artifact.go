package types

import (
	"io"
	"time"
)

// Artifact 已存储文件及其元数据
type Artifact struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	StorageKey  string `json:"storage_key"`

	ByteSize int64  `json:"byte_size"`
	MIMEType string `json:"mime_type"`

	// 分类信息
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	// 异步提取的文本
	ExtractedText string `json:"extracted_text,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadRequest 上传请求
type UploadRequest struct {
	DisplayName string
	Content     io.Reader
	Size        int64
	Category    string
	Tags        []string
}

// DownloadResult 下载结果，调用方负责关闭 Content
type DownloadResult struct {
	Content  io.ReadCloser
	FileName string
	MIMEType string
	Size     int64
}

// ArtifactFilter 文件列表过滤条件
type ArtifactFilter struct {
	Search   string
	Category string
	Tags     []string
	Created  DateRange
}
