package biz

import (
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
)

var categoryRules = []struct {
	keywords []string
	category string
}{
	{[]string{"warning", "recall"}, types.CategorySafetyAlert},
	{[]string{"approval", "clearance"}, types.CategoryApproval},
	{[]string{"guidance"}, types.CategoryGuidance},
	{[]string{"inspection"}, types.CategoryInspection},
}

var tagRules = []struct {
	keyword string
	tag     string
}{
	{"drug", "Drug"},
	{"device", "Device"},
	{"biologic", "Biologic"},
	{"food", "Food"},
	{"510k", "510(k)"},
	{"pma", "PMA"},
}

// InferCategory 根据文件名推断分类
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return types.CategoryGeneral
}

// InferTags 根据文件名推断标签
func InferTags(name string) []string {
	lower := strings.ToLower(name)
	var tags []string
	for _, rule := range tagRules {
		if strings.Contains(lower, rule.keyword) {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}
