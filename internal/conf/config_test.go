package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, StorageMinIO, cfg.Storage.Driver)
	assert.Equal(t, cfg.Storage.DocumentsBucket, cfg.Storage.TemplatesBucket)
	assert.Equal(t, int64(50<<20), cfg.Upload.MaxSize)
	assert.ElementsMatch(t, []string{".pdf", ".doc", ".docx", ".txt"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 100, cfg.Query.MaxPageSize)
	assert.Equal(t, time.Hour, cfg.Reconcile.Grace)

	opts := cfg.SyncOptions()
	assert.Equal(t, 60*time.Second, opts.BlobTimeout)
	assert.Equal(t, 10*time.Second, opts.MetadataTimeout)
	assert.Equal(t, 30*time.Second, opts.CompensationTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
storage:
  driver: s3
  documents_bucket: docs
  templates_bucket: templates
s3:
  region: eu-west-1
sync:
  blob_timeout: 5s
query:
  max_page_size: 50
`), 0o600))

	t.Setenv("REGDASH_QUERY_MAX_PAGE_SIZE", "25")
	t.Setenv("REGDASH_DATABASE_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, StorageS3, cfg.Storage.Driver)
	assert.Equal(t, "docs", cfg.Storage.DocumentsBucket)
	assert.Equal(t, "templates", cfg.Storage.TemplatesBucket)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
	assert.Equal(t, 5*time.Second, cfg.Sync.BlobTimeout)
	assert.Equal(t, 25, cfg.Query.MaxPageSize)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REGDASH_SERVER_PORT=7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REGDASH_SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	base := func(t *testing.T) *Config {
		t.Helper()
		t.Chdir(t.TempDir())
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "unknown storage driver", mutate: func(c *Config) { c.Storage.Driver = "gcs" }, wantErr: true},
		{name: "s3 without region", mutate: func(c *Config) { c.Storage.Driver = StorageS3; c.S3.Region = "" }, wantErr: true},
		{name: "missing bucket", mutate: func(c *Config) { c.Storage.TemplatesBucket = "" }, wantErr: true},
		{name: "zero sync timeout", mutate: func(c *Config) { c.Sync.MetadataTimeout = 0 }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.Query.MaxPageSize = 0 }, wantErr: true},
		{name: "worker without count", mutate: func(c *Config) { c.Worker.Count = 0 }, wantErr: true},
		{name: "disabled worker without count", mutate: func(c *Config) { c.Worker.Enabled = false; c.Worker.Count = 0 }},
		{name: "negative grace", mutate: func(c *Config) { c.Reconcile.Grace = -time.Second }, wantErr: true},
		{name: "bad database", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "bad redis", mutate: func(c *Config) { c.Redis.Mode = "cluster" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
