package api

import (
	"errors"
	"log"
	"net/http"

	"wallet/middleware"
	"wallet/service"

	"github.com/gin-gonic/gin"
)

// statusOf 业务错误到 HTTP 状态码的映射
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError 按错误类型返回响应；未分类错误记录日志并按运行模式隐藏细节
func RespondError(c *gin.Context, err error, fallback string) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
		Error(c, status, SafeErrorMessage(err, fallback))
		return
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		Error(c, status, svcErr.Error())
		return
	}
	Error(c, status, err.Error())
}

// authFail 认证接口的错误格式 {success:false, message}
func authFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// authOK 认证接口的成功格式
func authOK(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}
