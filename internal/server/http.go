package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/conf"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"go.uber.org/zap"
)

// RouteRegistrar 在 /api/v1 下注册路由的服务
type RouteRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

// HealthCheck 依赖健康检查，返回错误时 /health 报 503
type HealthCheck func(ctx context.Context) error

type HTTPServer struct {
	server *http.Server
	router *gin.Engine
	logger *logger.Logger
}

func NewHTTPServer(
	config *conf.ServerConfig,
	log *logger.Logger,
	checks map[string]HealthCheck,
	services ...RouteRegistrar,
) *HTTPServer {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	router := gin.New()
	router.MaxMultipartMemory = config.MaxMultipartMemory
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log, logger.MiddlewareOptions{
		SkipPathPrefixes: []string{"/health"},
	}))

	// Health check
	router.GET("/health", healthHandler(checks))

	// API routes
	api := router.Group("/api/v1")
	for _, svc := range services {
		svc.RegisterRoutes(api)
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:              config.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		router: router,
		logger: log,
	}
}

// Handler 供测试直接驱动路由
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				deps[name] = err.Error()
				continue
			}
			deps[name] = "ok"
		}

		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       state,
			"time":         time.Now().Format(time.RFC3339),
			"dependencies": deps,
		})
	}
}
