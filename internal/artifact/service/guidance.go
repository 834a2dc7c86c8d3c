package service

import (
	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	apperrors "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/errors"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/response"
)

// GuidanceService 指南库 HTTP 服务
type GuidanceService struct {
	query  *biz.QueryUseCase
	logger *logger.Logger
}

// NewGuidanceService 创建指南服务
func NewGuidanceService(query *biz.QueryUseCase, log *logger.Logger) *GuidanceService {
	if log == nil {
		log = logger.NewNop()
	}
	return &GuidanceService{query: query, logger: log}
}

// RegisterRoutes 注册路由
func (s *GuidanceService) RegisterRoutes(r *gin.RouterGroup) {
	guidance := r.Group("/guidance")
	{
		guidance.GET("", s.List)
		guidance.GET("/options", s.Options)
		guidance.GET("/stats", s.Stats)
	}
}

// List 分页列表
func (s *GuidanceService) List(c *gin.Context) {
	var req ListGuidanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	filter, err := req.filter()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, size := req.values()
	result, err := s.query.ListGuidance(c.Request.Context(), filter, page, size)
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrGuidanceNotFound)
		return
	}
	response.Success(c, result)
}

// Options 过滤器可选值
func (s *GuidanceService) Options(c *gin.Context) {
	opts, err := s.query.GuidanceOptions(c.Request.Context())
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrGuidanceNotFound)
		return
	}
	response.Success(c, opts)
}

// Stats 统计
func (s *GuidanceService) Stats(c *gin.Context) {
	stats, err := s.query.GuidanceStats(c.Request.Context())
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrGuidanceNotFound)
		return
	}
	response.Success(c, stats)
}
