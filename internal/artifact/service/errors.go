package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/artifact/biz"
	apperrors "github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/errors"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/logger"
	"github.com/lk2023060901/regulatory-dashboard-backend/internal/pkg/response"
	"go.uber.org/zap"
)

// toAppError 将领域错误映射为业务错误码，notFound 为对应资源的不存在错误码
func toAppError(err error, notFound int) *apperrors.AppError {
	switch biz.KindOf(err) {
	case biz.KindValidation:
		switch {
		case errors.Is(err, biz.ErrFileType):
			return apperrors.Wrap(err, apperrors.ErrArtifactFileType)
		case errors.Is(err, biz.ErrFileTooLarge):
			return apperrors.Wrap(err, apperrors.ErrArtifactFileTooLarge)
		case errors.Is(err, biz.ErrInvalidPage), errors.Is(err, biz.ErrInvalidRange):
			return apperrors.Wrap(err, apperrors.ErrInvalidParams)
		}
		return apperrors.Wrap(err, apperrors.ErrArtifactInvalid)
	case biz.KindNotFound:
		return apperrors.Wrap(err, notFound)
	case biz.KindStorage:
		if biz.IsIntegrityViolation(err) {
			return apperrors.Wrap(err, apperrors.ErrArtifactBlobMissing)
		}
		return apperrors.Wrap(err, apperrors.ErrArtifactStorageFailed)
	case biz.KindMetadata:
		return apperrors.Wrap(err, apperrors.ErrArtifactMetadataFailed)
	case biz.KindQuery:
		return apperrors.Wrap(err, apperrors.ErrQueryFailed)
	}
	return apperrors.Wrap(err, apperrors.ErrInternalServer)
}

// fail 写错误响应；校验类与不存在不按系统故障记录
func fail(c *gin.Context, log *logger.Logger, err error, notFound int) {
	appErr := toAppError(err, notFound)
	if !apperrors.IsClientError(appErr.Code) {
		log.WithContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Int("code", appErr.Code),
			zap.Error(err),
		)
	}
	response.HandleError(c, appErr)
}
