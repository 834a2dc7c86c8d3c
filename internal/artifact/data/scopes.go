package data

import (
	"encoding/json"
	"strings"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchScope 大小写不敏感的子串匹配，任一列命中即可
func searchScope(q string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		q = strings.TrimSpace(q)
		if q == "" || len(columns) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
		conds := make([]string, len(columns))
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			conds[i] = "LOWER(" + col + `) LIKE ? ESCAPE '\'`
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// containsAllScope JSON 数组列包含全部给定值
func containsAllScope(dialect, column string, values []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		values = compact(values)
		if len(values) == 0 {
			return db
		}
		if dialect == database.DriverPostgres {
			b, _ := json.Marshal(values)
			return db.Where(column+" @> ?::jsonb", string(b))
		}
		for _, v := range values {
			db = db.Where("EXISTS (SELECT 1 FROM json_each("+column+") WHERE json_each.value = ?)", v)
		}
		return db
	}
}

// dateRangeScope 闭区间，任一端可省略
func dateRangeScope(column string, r types.DateRange) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if r.From != nil {
			db = db.Where(column+" >= ?", r.From.UTC())
		}
		if r.To != nil {
			db = db.Where(column+" <= ?", r.To.UTC())
		}
		return db
	}
}

func compact(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
