package util

import (
	"labelmarket_backend/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构，code=0 表示成功
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Fail 按业务错误返回统一响应，非 AppError 一律按内部错误处理
func Fail(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		c.JSON(appErr.Status, Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	LogInternalError(c, err)
}

func Error(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, ErrUnauthorized.Code, ErrUnauthorized.Message)
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, ErrForbidden.Code, ErrForbidden.Message)
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, ErrInvalidParam.Code, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, ErrTaskNotFound.Code, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, 50000, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}
