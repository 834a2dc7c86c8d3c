package types

import "time"

// DateRange 闭区间日期范围，任一端可为空
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero 两端都未设置
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Valid 起止顺序正确
func (r DateRange) Valid() bool {
	if r.From == nil || r.To == nil {
		return true
	}
	return !r.From.After(*r.To)
}

// Page 分页结果
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}
