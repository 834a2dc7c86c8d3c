package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

// PageRequest 分页参数，缺省第 1 页、每页 20 条
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1"`
}

func (r PageRequest) values() (int, int) {
	page, size := r.Page, r.PageSize
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = 20
	}
	return page, size
}

// DateRangeRequest 日期区间参数，支持 2006-01-02 或 RFC3339
type DateRangeRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// toRange 仅日期的 to 取当天结束，保证闭区间
func (r DateRangeRequest) toRange() (types.DateRange, error) {
	var out types.DateRange
	if r.From != "" {
		t, _, err := parseDate(r.From)
		if err != nil {
			return out, fmt.Errorf("invalid from: %w", err)
		}
		out.From = &t
	}
	if r.To != "" {
		t, dateOnly, err := parseDate(r.To)
		if err != nil {
			return out, fmt.Errorf("invalid to: %w", err)
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		out.To = &t
	}
	return out, nil
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.UTC(), false, nil
}

// ListArtifactsRequest 文件列表查询
type ListArtifactsRequest struct {
	PageRequest
	DateRangeRequest
	Q        string   `form:"q"`
	Category string   `form:"category"`
	Tags     []string `form:"tag"`
}

func (r *ListArtifactsRequest) filter() (types.ArtifactFilter, error) {
	created, err := r.toRange()
	if err != nil {
		return types.ArtifactFilter{}, err
	}
	return types.ArtifactFilter{Search: r.Q, Category: r.Category, Tags: r.Tags, Created: created}, nil
}

// ListTemplatesRequest 模板列表查询
type ListTemplatesRequest struct {
	PageRequest
	Q            string `form:"q"`
	Category     string `form:"category"`
	Authority    string `form:"authority"`
	Jurisdiction string `form:"jurisdiction"`
	Official     bool   `form:"official"`
	Featured     bool   `form:"featured"`
}

func (r *ListTemplatesRequest) filter() types.TemplateFilter {
	return types.TemplateFilter{
		Search:       r.Q,
		Category:     r.Category,
		Authority:    r.Authority,
		Jurisdiction: r.Jurisdiction,
		OfficialOnly: r.Official,
		FeaturedOnly: r.Featured,
	}
}

// ListGuidanceRequest 指南列表查询
type ListGuidanceRequest struct {
	PageRequest
	DateRangeRequest
	Q            string   `form:"q"`
	Status       string   `form:"status"`
	Organization string   `form:"organization"`
	Topics       []string `form:"topic"`
}

func (r *ListGuidanceRequest) filter() (types.GuidanceFilter, error) {
	issued, err := r.toRange()
	if err != nil {
		return types.GuidanceFilter{}, err
	}
	return types.GuidanceFilter{
		Search:       r.Q,
		Status:       r.Status,
		Organization: r.Organization,
		Topics:       r.Topics,
		IssueDate:    issued,
	}, nil
}

// DeleteResponse 删除结果，blob 删除失败时带 warning
type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
	Warning string `json:"warning,omitempty"`
}

// SessionResponse 会话缓存视图
type SessionResponse struct {
	Items    []*types.Artifact `json:"items"`
	Total    int               `json:"total"`
	LoadedAt time.Time         `json:"loaded_at"`
}
