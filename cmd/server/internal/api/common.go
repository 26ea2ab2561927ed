package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/middleware"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
	"github.com/houzhh15/weeknote/pkg/logger"
)

// genericFailure 服务端故障时返回给调用方的统一提示，细节只写日志
const genericFailure = "服务暂时不可用，请稍后重试"

// currentUser 获取当前用户名，未认证时返回 system
func currentUser(c *gin.Context) string {
	if claims, ok := middleware.CurrentUser(c); ok && claims.Username != "" {
		return claims.Username
	}
	return "system"
}

// mustClaims 取出当前用户 claims；缺失时直接返回 401
func mustClaims(c *gin.Context) (*users.Claims, bool) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		unauthorizedResponse(c, "")
		return nil, false
	}
	return claims, true
}

// paramID 解析路径中的正整数 id
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequestResponse(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// errorResponse 返回错误响应
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": message,
	})
}

// successResponse 返回 {"success": true, "data": ...}
func successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// createdResponse 返回 201
func createdResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// successResponseWithMessage 返回带消息的成功响应
func successResponseWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

// notFoundResponse 返回 404 响应
func notFoundResponse(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error": resource + " not found",
	})
}

// badRequestResponse 返回 400 响应
func badRequestResponse(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": message,
	})
}

// unauthorizedResponse 返回 401 响应
func unauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = "unauthorized"
	}
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}

// conflictResponse 返回 409 响应
func conflictResponse(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, gin.H{
		"error": message,
	})
}

// internalErrorResponse 返回 500 响应；错误详情只记录在日志里
func internalErrorResponse(c *gin.Context, err error) {
	logger.L().ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
		"user", currentUser(c),
		"error", err,
	)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": genericFailure,
	})
}

// storeErrorResponse 把存储层的哨兵错误映射为 HTTP 状态码
func storeErrorResponse(c *gin.Context, resource string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		notFoundResponse(c, resource)
	case errors.Is(err, store.ErrConflict):
		conflictResponse(c, resource+" already exists")
	case errors.Is(err, store.ErrInvalid):
		badRequestResponse(c, err.Error())
	default:
		internalErrorResponse(c, err)
	}
}
