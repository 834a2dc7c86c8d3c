package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/conf"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/database"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	pkgminio "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/minio"
	pkgredis "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/redis"
	"go.uber.org/zap"
)

// Data 进程级共享资源：数据库、Redis 与两个对象存储桶
type Data struct {
	DB        *database.DB
	Redis     *pkgredis.Client
	Documents biz.BlobStore
	Templates biz.BlobStore
	Logger    *logger.Logger
}

func NewData(ctx context.Context, config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	// Initialize database
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := artifactdata.AutoMigrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	// Initialize Redis
	rdb, err := pkgredis.New(&config.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	// Initialize blob storage
	documents, templates, closeBlobs, err := initBlobStores(ctx, config, log)
	if err != nil {
		_ = rdb.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init %s storage: %w", config.Storage.Driver, err)
	}

	d := &Data{
		DB:        db,
		Redis:     rdb,
		Documents: documents,
		Templates: templates,
		Logger:    log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		closeBlobs()
		if err := rdb.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	return d, cleanup, nil
}

func initBlobStores(ctx context.Context, config *conf.Config, log *logger.Logger) (biz.BlobStore, biz.BlobStore, func(), error) {
	buckets := uniqueBuckets(config.Storage.DocumentsBucket, config.Storage.TemplatesBucket)

	switch config.Storage.Driver {
	case conf.StorageS3:
		client, err := artifactdata.NewS3Client(ctx, &config.S3)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("s3 storage initialized",
			zap.String("region", config.S3.Region),
			zap.Strings("buckets", buckets),
		)
		return artifactdata.NewS3BlobStore(client, config.Storage.DocumentsBucket),
			artifactdata.NewS3BlobStore(client, config.Storage.TemplatesBucket),
			func() {}, nil

	default:
		minioCfg := config.MinIO
		client, err := pkgminio.NewClient(&minioCfg, log.Logger)
		if err != nil {
			return nil, nil, nil, err
		}
		// 桶不存在时创建
		for _, bucket := range buckets {
			if err := client.EnsureBucket(ctx, bucket); err != nil {
				_ = client.Close()
				return nil, nil, nil, err
			}
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close minio client", zap.Error(err))
			}
		}
		return artifactdata.NewMinIOBlobStore(client, config.Storage.DocumentsBucket),
			artifactdata.NewMinIOBlobStore(client, config.Storage.TemplatesBucket),
			closeFn, nil
	}
}

func uniqueBuckets(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		dup := false
		for _, o := range out {
			if o == n {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}
