package service

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/cache"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/types"
	apperrors "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/errors"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// Enqueuer 上传成功后投递文本提取任务
type Enqueuer interface {
	EnqueueArtifact(ctx context.Context, artifactID string) error
}

// ArtifactService 文件 HTTP 服务
type ArtifactService struct {
	artifacts *biz.ArtifactUseCase
	query     *biz.QueryUseCase
	sessions  *cache.Registry
	enqueuer  Enqueuer
	logger    *logger.Logger
}

// NewArtifactService 创建文件服务，enqueuer 可为 nil（关闭文本提取）
func NewArtifactService(
	artifacts *biz.ArtifactUseCase,
	query *biz.QueryUseCase,
	sessions *cache.Registry,
	enqueuer Enqueuer,
	log *logger.Logger,
) *ArtifactService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ArtifactService{
		artifacts: artifacts,
		query:     query,
		sessions:  sessions,
		enqueuer:  enqueuer,
		logger:    log,
	}
}

// RegisterRoutes 注册路由
func (s *ArtifactService) RegisterRoutes(r *gin.RouterGroup) {
	artifacts := r.Group("/artifacts")
	{
		artifacts.POST("", s.Upload)
		artifacts.GET("", s.List)
		artifacts.GET("/session", s.Session)
		artifacts.GET("/:id/download", s.Download)
		artifacts.DELETE("/:id", s.Delete)
	}
}

// Upload 上传文件
func (s *ArtifactService) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "invalid file or field name is not 'file'")
		return
	}
	defer file.Close()

	artifact, err := s.artifacts.Upload(ctx, &types.UploadRequest{
		DisplayName: header.Filename,
		Content:     file,
		Size:        header.Size,
		Category:    c.PostForm("category"),
		Tags:        c.PostFormArray("tags"),
	})
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrArtifactNotFound)
		return
	}

	if session, ok := s.session(c); ok {
		session.ApplyUpload(artifact)
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueArtifact(ctx, artifact.ID); err != nil {
			s.logger.WithContext(ctx).Warn("failed to enqueue text extraction",
				zap.String("id", artifact.ID), zap.Error(err))
		}
	}

	response.Created(c, artifact)
}

// List 分页列表
func (s *ArtifactService) List(c *gin.Context) {
	var req ListArtifactsRequest
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
	result, err := s.query.ListArtifacts(c.Request.Context(), filter, page, size)
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrArtifactNotFound)
		return
	}
	response.Success(c, result)
}

// Session 当前会话缓存的文件集合，refresh=true 强制重新拉取
func (s *ArtifactService) Session(c *gin.Context) {
	sid := sessionID(c)
	if sid == "" {
		response.BadRequest(c, logger.HeaderSessionID+" header is required")
		return
	}

	session := s.sessions.Session(sid)
	items, err := session.Items(c.Request.Context(), c.Query("refresh") == "true")
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrArtifactNotFound)
		return
	}
	response.Success(c, &SessionResponse{Items: items, Total: len(items), LoadedAt: session.LoadedAt()})
}

// Download 下载原始内容
func (s *ArtifactService) Download(c *gin.Context) {
	result, err := s.artifacts.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrArtifactNotFound)
		return
	}
	serveContent(c, result)
}

// Delete 幂等删除，blob 删除失败时仍返回成功并带 warning
func (s *ArtifactService) Delete(c *gin.Context) {
	id := c.Param("id")
	outcome, err := s.artifacts.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, s.logger, err, apperrors.ErrArtifactNotFound)
		return
	}

	if session, ok := s.session(c); ok {
		session.ApplyDelete(id)
	}

	resp := &DeleteResponse{ID: id, Deleted: outcome.Existed}
	if outcome.BlobErr != nil {
		resp.Warning = outcome.BlobErr.Error()
	}
	response.Success(c, resp)
}

// session 只修补已存在的会话缓存
func (s *ArtifactService) session(c *gin.Context) (*cache.Session, bool) {
	if s.sessions == nil {
		return nil, false
	}
	sid := sessionID(c)
	if sid == "" {
		return nil, false
	}
	return s.sessions.Lookup(sid)
}

func sessionID(c *gin.Context) string {
	if sid := logger.GetSessionID(c.Request.Context()); sid != "" {
		return sid
	}
	return c.GetHeader(logger.HeaderSessionID)
}

func serveContent(c *gin.Context, result *types.DownloadResult) {
	defer result.Content.Close()

	size := result.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, result.MIMEType, result.Content, map[string]string{
		"Content-Disposition": contentDisposition(result.FileName),
	})
}
