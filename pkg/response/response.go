package response

import (
	"net/http"

	"linenloft/pkg/apperrors"
	"linenloft/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`    // 业务码
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// FromError 按错误类别映射 HTTP 状态码与业务码
// 所有权不匹配与记录不存在统一走 404，避免暴露他人订单的存在性
func FromError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	msg := apperrors.MessageOf(err)

	switch kind {
	case apperrors.KindUnauthenticated:
		Error(c, http.StatusUnauthorized, ErrAuthFailed, msg)
	case apperrors.KindNotFound:
		Error(c, http.StatusNotFound, ErrNotFound, msg)
	case apperrors.KindInvalidTransition:
		Error(c, http.StatusBadRequest, ErrInvalidTransition, msg)
	case apperrors.KindReferenceMismatch:
		Error(c, http.StatusBadRequest, ErrPaymentMismatch, msg)
	case apperrors.KindAlreadyPaid:
		Error(c, http.StatusBadRequest, ErrAlreadyPaid, msg)
	case apperrors.KindUpstreamFailure:
		Error(c, http.StatusBadRequest, ErrCaptureFailed, msg)
	case apperrors.KindValidation:
		Error(c, http.StatusBadRequest, ErrInvalidParam, msg)
	default:
		// 未分类错误只回给客户端笼统提示，完整错误落日志
		if logger.Log != nil {
			logger.Log.Error("Unhandled error",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, ErrServerInternal, msg)
	}
}
