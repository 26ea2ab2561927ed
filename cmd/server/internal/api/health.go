package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Uptime    string `json:"uptime"`
	CheckedAt string `json:"checked_at"`
}

// HandleHealth GET /health
// 数据库不可达时返回 503
//
// 响应格式:
//
//	{
//	  "status": "ok",
//	  "database": "ok",
//	  "uptime": "1h2m3s",
//	  "checked_at": "2025-10-11T02:20:00Z"
//	}
func HandleHealth(db Pinger, startedAt time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{
			Status:    "ok",
			Database:  "ok",
			Uptime:    time.Since(startedAt).Truncate(time.Second).String(),
			CheckedAt: time.Now().UTC().Format(time.RFC3339),
		}
		code := http.StatusOK
		if db == nil {
			resp.Status, resp.Database = "degraded", "not initialized"
			code = http.StatusServiceUnavailable
		} else if err := db.Ping(ctx); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}
