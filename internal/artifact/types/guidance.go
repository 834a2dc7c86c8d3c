package types

import "time"

// Guidance 监管指南文件
type Guidance struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	IssueDate    time.Time      `json:"issue_date"`
	Organization string         `json:"organization"`
	ByteSize     int64          `json:"byte_size"`
	Status       GuidanceStatus `json:"status"`
	Topics       []string       `json:"topics"`

	CommentPeriodCloses *time.Time `json:"comment_period_closes,omitempty"`
	RegulatoryPathways  []string   `json:"regulatory_pathways,omitempty"`
	DeviceClass         string     `json:"device_class,omitempty"`
	URL                 string     `json:"url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// GuidanceFilter 指南列表过滤条件
type GuidanceFilter struct {
	Search       string
	Status       string
	Organization string
	Topics       []string
	IssueDate    DateRange
}

// FilterOptions 过滤器可选值，基于全量数据计算
type FilterOptions struct {
	Statuses      []string `json:"statuses"`
	Organizations []string `json:"organizations"`
	Topics        []string `json:"topics"`
}

// GuidanceStats 指南统计
type GuidanceStats struct {
	Total int64 `json:"total"`
	Final int64 `json:"final"`
	Draft int64 `json:"draft"`
}
