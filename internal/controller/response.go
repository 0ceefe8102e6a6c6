package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront_202610/internal/service"
	"storefront_202610/pkg/logger"
)

// ==================== 统一响应 ====================
// 成功: {"code": 0, "message": "...", "data": ...}
// 失败: {"code": <http status>, "message": "..."}

func ok(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": message,
		"data":    data,
	})
}

func fail(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}

// failErr 按 service 层错误类型映射 HTTP 状态码
func failErr(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrBannerNotFound),
		errors.Is(err, service.ErrUserNotFound):
		fail(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrUnknownImage),
		errors.Is(err, service.ErrTooManyVariants),
		errors.Is(err, service.ErrSubcategoryInvalid),
		errors.Is(err, service.ErrCategoryNameEmpty),
		errors.Is(err, service.ErrBannerNoPhotos):
		fail(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		fail(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserDisabled):
		fail(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		fail(ctx, http.StatusConflict, err.Error())
	default:
		logger.Named("HTTP").Error("请求处理失败",
			zap.String("path", ctx.FullPath()),
			zap.Error(err),
		)
		fail(ctx, http.StatusInternalServerError, "服务器内部错误")
	}
}

// pathID 解析路径参数 :id
func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(ctx, http.StatusBadRequest, "无效的 ID")
		return 0, false
	}
	return id, true
}
