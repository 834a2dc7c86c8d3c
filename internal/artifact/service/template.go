package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	apperrors "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/errors"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/response"
)

// TemplateService 模板 HTTP 服务
type TemplateService struct {
	templates *biz.TemplateUseCase
	query     *biz.QueryUseCase
	logger    *logger.Logger

	// 尚未完成的下载计数累加
	inflight sync.WaitGroup
}

// NewTemplateService 创建模板服务
func NewTemplateService(templates *biz.TemplateUseCase, query *biz.QueryUseCase, log *logger.Logger) *TemplateService {
	if log == nil {
		log = logger.NewNop()
	}
	return &TemplateService{templates: templates, query: query, logger: log}
}

// RegisterRoutes 注册路由
func (s *TemplateService) RegisterRoutes(r *gin.RouterGroup) {
	templates := r.Group("/templates")
	{
		templates.GET("", s.List)
		templates.GET("/:id", s.Get)
		templates.GET("/:id/download", s.Download)
	}
}

// List 分页列表，推荐模板优先
func (s *TemplateService) List(c *gin.Context) {
	var req ListTemplatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, size := req.values()
	result, err := s.query.ListTemplates(c.Request.Context(), req.filter(), page, size)
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrTemplateNotFound)
		return
	}
	response.Success(c, result)
}

// Get 模板详情
func (s *TemplateService) Get(c *gin.Context) {
	tpl, err := s.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrTemplateNotFound)
		return
	}
	response.Success(c, tpl)
}

// Download 外部地址重定向，内部存储直接返回内容；成功后异步累加下载次数
func (s *TemplateService) Download(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	result, err := s.templates.Download(ctx, id)
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrTemplateNotFound)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.templates.IncrementDownloadCount(context.WithoutCancel(ctx), id)
	}()

	if result.RedirectURL != "" {
		c.Redirect(http.StatusFound, result.RedirectURL)
		return
	}
	serveContent(c, &result.DownloadResult)
}

// Wait 等待已发起的下载计数累加完成，ctx 结束时放弃等待
func (s *TemplateService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
