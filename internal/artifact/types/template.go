package types

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// Template 官方申报模板
type Template struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Region      string `json:"region"`

	Authority    string `json:"authority"`
	Jurisdiction string `json:"jurisdiction"`
	CountryCode  string `json:"country_code"`
	CountryFlag  string `json:"country_flag"`

	DownloadURL DownloadTarget `json:"download_url"`
	FileName    string         `json:"file_name,omitempty"`
	ByteSize    int64          `json:"byte_size"`
	FileFormat  string         `json:"file_format"`
	Version     string         `json:"version"`

	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	LastUpdated   *time.Time `json:"last_updated,omitempty"`

	CompletenessScore int   `json:"completeness_score"`
	IsOfficial        bool  `json:"is_official"`
	IsFeatured        bool  `json:"is_featured"`
	DownloadCount     int64 `json:"download_count"`

	CreatedAt time.Time `json:"created_at"`
}

// SuggestedFileName 下载时呈现给用户的文件名
func (t *Template) SuggestedFileName() string {
	if t.FileName != "" {
		return t.FileName
	}
	if t.FileFormat == "" {
		return t.Title
	}
	return t.Title + "." + strings.ToLower(t.FileFormat)
}

// TemplateFilter 模板列表过滤条件
type TemplateFilter struct {
	Search       string
	Category     string
	Authority    string
	Jurisdiction string
	OfficialOnly bool
	FeaturedOnly bool
}

// TemplateDownload 模板下载结果。RedirectURL 非空时 Content 为 nil
type TemplateDownload struct {
	RedirectURL string
	DownloadResult
}

// DownloadTarget 模板下载目标：内部存储键或外部绝对 URL
type DownloadTarget struct {
	external bool
	value    string
}

// StorageTarget 指向内部 blob 的下载目标
func StorageTarget(key string) DownloadTarget {
	return DownloadTarget{value: key}
}

// ExternalTarget 指向外部地址的下载目标
func ExternalTarget(rawURL string) DownloadTarget {
	return DownloadTarget{external: true, value: rawURL}
}

// ParseDownloadTarget 绝对 http(s) URL 视为外部地址，其余视为存储键
func ParseDownloadTarget(raw string) DownloadTarget {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.IsAbs() && u.Host != "" &&
		(u.Scheme == "http" || u.Scheme == "https") {
		return ExternalTarget(raw)
	}
	return StorageTarget(raw)
}

// IsExternal 是否为外部地址
func (t DownloadTarget) IsExternal() bool { return t.external }

// IsZero 未设置
func (t DownloadTarget) IsZero() bool { return t.value == "" }

// StorageKey 内部存储键，外部地址返回空串
func (t DownloadTarget) StorageKey() string {
	if t.external {
		return ""
	}
	return t.value
}

// URL 外部地址，内部存储键返回空串
func (t DownloadTarget) URL() string {
	if !t.external {
		return ""
	}
	return t.value
}

func (t DownloadTarget) String() string { return t.value }

func (t DownloadTarget) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.value)
}

func (t *DownloadTarget) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseDownloadTarget(s)
	return nil
}
