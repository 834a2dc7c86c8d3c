package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	pkgminio "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/minio"
	pkgredis "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/redis"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 REGDASH_DATABASE_HOST
const EnvPrefix = "REGDASH"

// Storage drivers
const (
	StorageMinIO = "minio"
	StorageS3    = "s3"
)

type Config struct {
	Server    ServerConfig          `mapstructure:"server"`
	Database  database.Config       `mapstructure:"database"`
	Redis     pkgredis.Config       `mapstructure:"redis"`
	Storage   StorageConfig         `mapstructure:"storage"`
	MinIO     pkgminio.Config       `mapstructure:"minio"`
	S3        artifactdata.S3Config `mapstructure:"s3"`
	Upload    UploadConfig          `mapstructure:"upload"`
	Sync      SyncConfig            `mapstructure:"sync"`
	Query     QueryConfig           `mapstructure:"query"`
	Cache     CacheConfig           `mapstructure:"cache"`
	Worker    WorkerConfig          `mapstructure:"worker"`
	Reconcile ReconcileConfig       `mapstructure:"reconcile"`
	Log       logger.Config         `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxMultipartMemory 超出部分落盘
	MaxMultipartMemory int64 `mapstructure:"max_multipart_memory"`
}

type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // minio, s3
	DocumentsBucket string `mapstructure:"documents_bucket"`
	TemplatesBucket string `mapstructure:"templates_bucket"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type SyncConfig struct {
	BlobTimeout         time.Duration `mapstructure:"blob_timeout"`
	MetadataTimeout     time.Duration `mapstructure:"metadata_timeout"`
	CompensationTimeout time.Duration `mapstructure:"compensation_timeout"`
}

type QueryConfig struct {
	MaxPageSize int           `mapstructure:"max_page_size"`
	OptionsTTL  time.Duration `mapstructure:"options_ttl"`
}

type CacheConfig struct {
	MaxSessions     int `mapstructure:"max_sessions"`
	RefreshPageSize int `mapstructure:"refresh_page_size"`
}

type WorkerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Count           int           `mapstructure:"count"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MaxExtractBytes int64         `mapstructure:"max_extract_bytes"`
}

type ReconcileConfig struct {
	Grace time.Duration `mapstructure:"grace"`
}

// Load 读取配置：.env（可选）→ 默认值 → 配置文件（path 为空时跳过）→ 环境变量
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_multipart_memory", 32<<20)

	db := database.DefaultConfig()
	v.SetDefault("database.driver", db.Driver)
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", db.DBName)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.timezone", db.Timezone)
	v.SetDefault("database.path", "regdash.db")
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.max_open_conns", db.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", db.ConnMaxIdleTime)
	v.SetDefault("database.log_level", db.LogLevel)
	v.SetDefault("database.slow_threshold", db.SlowThreshold)
	v.SetDefault("database.prepare_stmt", db.PrepareStmt)
	v.SetDefault("database.auto_migrate", db.AutoMigrate)

	rd := pkgredis.DefaultConfig()
	v.SetDefault("redis.mode", string(rd.Mode))
	v.SetDefault("redis.addr", rd.Addr)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", rd.DB)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.min_idle_conns", rd.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rd.DialTimeout)
	v.SetDefault("redis.read_timeout", rd.ReadTimeout)
	v.SetDefault("redis.write_timeout", rd.WriteTimeout)
	v.SetDefault("redis.max_retries", rd.MaxRetries)

	v.SetDefault("storage.driver", StorageMinIO)
	v.SetDefault("storage.documents_bucket", "regdash")
	v.SetDefault("storage.templates_bucket", "regdash")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key_id", "minioadmin")
	v.SetDefault("minio.secret_access_key", "minioadmin")
	v.SetDefault("minio.session_token", "")
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket_lookup", string(pkgminio.BucketLookupAuto))
	v.SetDefault("minio.request_timeout", 30*time.Second)

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.session_token", "")
	v.SetDefault("s3.use_path_style", false)

	v.SetDefault("upload.max_size", 50<<20)
	v.SetDefault("upload.allowed_extensions", []string{".pdf", ".doc", ".docx", ".txt"})

	v.SetDefault("sync.blob_timeout", 60*time.Second)
	v.SetDefault("sync.metadata_timeout", 10*time.Second)
	v.SetDefault("sync.compensation_timeout", 30*time.Second)

	v.SetDefault("query.max_page_size", 100)
	v.SetDefault("query.options_ttl", 10*time.Minute)

	v.SetDefault("cache.max_sessions", 1024)
	v.SetDefault("cache.refresh_page_size", 100)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.count", 2)
	v.SetDefault("worker.poll_interval", time.Second)
	v.SetDefault("worker.max_retries", 3)
	v.SetDefault("worker.max_extract_bytes", 20<<20)

	v.SetDefault("reconcile.grace", time.Hour)

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.enable_caller", lg.EnableCaller)
	v.SetDefault("log.enable_stacktrace", lg.EnableStacktrace)
	v.SetDefault("log.file.filename", lg.File.Filename)
	v.SetDefault("log.file.max_size", lg.File.MaxSize)
	v.SetDefault("log.file.max_age", lg.File.MaxAge)
	v.SetDefault("log.file.max_backups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)
}

// Validate 校验各段配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	switch c.Storage.Driver {
	case StorageMinIO:
		if err := c.MinIO.Validate(); err != nil {
			return err
		}
	case StorageS3:
		if c.S3.Region == "" {
			return errors.New("s3: region is required")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if c.Storage.DocumentsBucket == "" || c.Storage.TemplatesBucket == "" {
		return errors.New("storage buckets are required")
	}

	if c.Sync.BlobTimeout <= 0 || c.Sync.MetadataTimeout <= 0 || c.Sync.CompensationTimeout <= 0 {
		return errors.New("sync timeouts must be > 0")
	}
	if c.Query.MaxPageSize <= 0 {
		return errors.New("query max_page_size must be > 0")
	}
	if c.Worker.Enabled && c.Worker.Count <= 0 {
		return errors.New("worker count must be > 0 when enabled")
	}
	if c.Reconcile.Grace < 0 {
		return errors.New("reconcile grace must be >= 0")
	}
	return nil
}

// SyncOptions 转换为同步超时设置
func (c *Config) SyncOptions() biz.SyncOptions {
	return biz.SyncOptions{
		BlobTimeout:         c.Sync.BlobTimeout,
		MetadataTimeout:     c.Sync.MetadataTimeout,
		CompensationTimeout: c.Sync.CompensationTimeout,
	}
}

// Addr HTTP 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
