package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/cache"
	artifactdata "github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/loader"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/queue"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/service"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/conf"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/data"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/server"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "", "config file path (defaults and REGDASH_* env only when empty)")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.Load(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize global logger
	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully", zap.String("storage", config.Storage.Driver))

	ctx := context.Background()

	// Initialize data layer
	d, cleanup, err := data.NewData(ctx, config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Initialize repositories
	artifactRepo := artifactdata.NewArtifactRepo(d.DB)
	templateRepo := artifactdata.NewTemplateRepo(d.DB)
	guidanceRepo := artifactdata.NewGuidanceRepo(d.DB)
	optionsCache := artifactdata.NewRedisOptionsCache(d.Redis, config.Query.OptionsTTL)
	journal := artifactdata.NewRedisJournal(d.Redis)

	// Initialize use cases
	policy, err := biz.NewUploadPolicy(config.Upload.MaxSize, config.Upload.AllowedExtensions)
	if err != nil {
		log.Fatal("invalid upload policy", zap.Error(err))
	}
	syncOpts := config.SyncOptions()

	artifactUseCase := biz.NewArtifactUseCase(artifactRepo, d.Documents, journal, policy, syncOpts, log)
	templateUseCase := biz.NewTemplateUseCase(templateRepo, d.Templates, journal, syncOpts, log)
	queryUseCase := biz.NewQueryUseCase(artifactRepo, templateRepo, guidanceRepo, optionsCache, config.Query.MaxPageSize, log)
	extractionUseCase := biz.NewExtractionUseCase(artifactRepo, d.Documents, loader.NewFactory(), config.Worker.MaxExtractBytes, log)

	// Per-session artifact caches
	refreshPageSize := config.Cache.RefreshPageSize
	if refreshPageSize <= 0 || refreshPageSize > queryUseCase.MaxPageSize() {
		refreshPageSize = queryUseCase.MaxPageSize()
	}
	sessions, err := cache.NewRegistry(config.Cache.MaxSessions, queryUseCase, refreshPageSize)
	if err != nil {
		log.Fatal("failed to initialize session cache", zap.Error(err))
	}

	// Initialize extraction worker
	var enqueuer service.Enqueuer
	if config.Worker.Enabled {
		extractWorker := queue.NewWorker(d.Redis, extractionUseCase, queue.Options{
			WorkerCount:  config.Worker.Count,
			PollInterval: config.Worker.PollInterval,
			MaxRetries:   config.Worker.MaxRetries,
		}, log)

		if err := extractWorker.Start(ctx); err != nil {
			log.Fatal("failed to start extraction worker", zap.Error(err))
		}
		defer extractWorker.Stop()
		enqueuer = extractWorker
	}

	// Initialize services
	artifactService := service.NewArtifactService(artifactUseCase, queryUseCase, sessions, enqueuer, log)
	templateService := service.NewTemplateService(templateUseCase, queryUseCase, log)
	guidanceService := service.NewGuidanceService(queryUseCase, log)

	// Initialize server
	httpServer := server.NewHTTPServer(&config.Server, log,
		map[string]server.HealthCheck{
			"database": d.DB.HealthCheck,
			"redis":    d.Redis.Ping,
		},
		artifactService, templateService, guidanceService,
	)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := templateService.Wait(shutdownCtx); err != nil {
		log.Warn("pending download counts not flushed", zap.Error(err))
	}

	log.Info("server exited")
}
