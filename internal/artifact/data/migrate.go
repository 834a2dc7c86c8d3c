package data

import "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"

// Models 需要迁移的表
func Models() []interface{} {
	return []interface{}{
		&ArtifactPO{},
		&TemplatePO{},
		&GuidancePO{},
	}
}

// AutoMigrate 迁移文件、模板、指南三张表
func AutoMigrate(db *database.DB) error {
	return db.AutoMigrate(Models()...)
}
