package database

import (
	"context"
	"errors"
	"testing"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConfig_Validate(t *testing.T) {
	pg := func(mut func(c *Config)) *Config {
		c := DefaultConfig()
		mut(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "sqlite memory", config: SQLiteMemoryConfig()},
		{name: "missing host", config: pg(func(c *Config) { c.Host = "" }), wantErr: true},
		{name: "invalid port", config: pg(func(c *Config) { c.Port = 0 }), wantErr: true},
		{name: "invalid SSL mode", config: pg(func(c *Config) { c.SSLMode = "sometimes" }), wantErr: true},
		{name: "invalid log level", config: pg(func(c *Config) { c.LogLevel = "chatty" }), wantErr: true},
		{name: "idle exceeds open", config: pg(func(c *Config) { c.MaxIdleConns = 100; c.MaxOpenConns = 10 }), wantErr: true},
		{name: "unknown driver", config: pg(func(c *Config) { c.Driver = "oracle" }), wantErr: true},
		{name: "sqlite without path", config: &Config{Driver: DriverSQLite, LogLevel: "warn"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=regdash sslmode=disable TimeZone=UTC",
		cfg.DSN())
}

type widget struct {
	ID   uint `gorm:"primarykey"`
	Name string
}

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := New(SQLiteMemoryConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db
}

func TestSQLite_PaginateAndTransaction(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	assert.Equal(t, "sqlite", db.Dialect())
	require.NoError(t, db.HealthCheck(ctx))

	err := db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			if err := tx.Create(&widget{Name: name}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var page []widget
	require.NoError(t, db.WithContext(ctx).GetDB().
		Scopes(OrderBy("id", false), Paginate(2, 2)).
		Find(&page).Error)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Name)
	assert.Equal(t, "d", page[1].Name)

	rollback := errors.New("rollback")
	err = db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "f"}).Error; err != nil {
			return err
		}
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	var count int64
	require.NoError(t, db.GetDB().Model(&widget{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)

	var missing widget
	err = db.GetDB().Scopes(WhereIf(true, "name = ?", "zzz")).First(&missing).Error
	assert.True(t, IsRecordNotFoundError(err))
}
