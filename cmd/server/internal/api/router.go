package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
	"github.com/houzhh15/weeknote/cmd/server/internal/metrics"
	"github.com/houzhh15/weeknote/cmd/server/internal/middleware"
	"github.com/houzhh15/weeknote/cmd/server/internal/services"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
)

// Deps 路由依赖
type Deps struct {
	Store          store.Store
	Users          *users.Manager
	Aggregation    *services.AggregationService
	Statistics     services.StatisticsService
	Audit          audit.AuditLogger
	AuthLogger     *slog.Logger
	AllowedOrigins []string
	StartedAt      time.Time
}

// NewRouter 组装全部中间件与路由
func NewRouter(d Deps) *gin.Engine {
	if d.Audit == nil {
		d.Audit = audit.NopLogger{}
	}
	if d.AuthLogger == nil {
		d.AuthLogger = slog.Default()
	}
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}
	if d.Statistics == nil {
		d.Statistics = services.NewStatisticsService(d.Store, 0)
	}
	if d.Aggregation == nil {
		d.Aggregation = services.NewAggregationService(d.Store, d.Store, nil, services.AggregationOptions{})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(d.AllowedOrigins))

	r.GET("/health", HandleHealth(d.Store, d.StartedAt))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/auth/login", HandleLogin(d.Users, d.Audit))

	authed := r.Group("/api")
	authed.Use(middleware.Auth(d.Users, d.AuthLogger))
	{
		authed.GET("/auth/me", HandleMe())

		// ========== Notes ==========
		authed.GET("/notes", HandleListNotes(d.Store))
		authed.POST("/notes", HandleCreateNote(d.Store))
		authed.GET("/notes/:id", HandleGetNote(d.Store))
		authed.PUT("/notes/:id", HandleUpdateNote(d.Store))
		authed.DELETE("/notes/:id", HandleDeleteNote(d.Store))
		authed.POST("/notes/:id/archive", HandleSetArchived(d.Store, true))
		authed.POST("/notes/:id/unarchive", HandleSetArchived(d.Store, false))
		authed.PUT("/notes/:id/move", HandleMoveNote(d.Store))
		authed.POST("/notes/:id/submit", HandleSetStatus(d.Store, d.Statistics, d.Audit, weekly.StatusSubmitted))
		authed.POST("/notes/:id/withdraw", HandleSetStatus(d.Store, d.Statistics, d.Audit, weekly.StatusDraft))
		authed.POST("/notes/:id/tags", HandleAttachTag(d.Store))
		authed.DELETE("/notes/:id/tags/:tagId", HandleDetachTag(d.Store))

		// ========== Tags & Folders ==========
		authed.GET("/tags", HandleListTags(d.Store))
		authed.POST("/tags", HandleCreateTag(d.Store))
		authed.PUT("/tags/:id", HandleRenameTag(d.Store))
		authed.DELETE("/tags/:id", HandleDeleteTag(d.Store))
		authed.GET("/folders", HandleListFolders(d.Store))
		authed.POST("/folders", HandleCreateFolder(d.Store))
		authed.PUT("/folders/:id", HandleRenameFolder(d.Store))
		authed.DELETE("/folders/:id", HandleDeleteFolder(d.Store))
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(store.RoleAdmin))
	{
		admin.GET("/stats", HandleGetStats(d.Statistics))
		admin.GET("/notes", HandleListAllNotes(d.Store))
		admin.GET("/weekly-reports", HandleListWeeklyReports(d.Store))
		admin.POST("/weekly-reports/aggregate", HandleAggregateReports(d.Aggregation, d.Audit))
		admin.POST("/weekly-reports/export", HandleExportReport(d.Aggregation, d.Audit))
		admin.GET("/users", HandleListUsers(d.Users))
		admin.POST("/users", HandleCreateUser(d.Users, d.Audit))
		admin.DELETE("/users/:id", HandleDeleteUser(d.Users, d.Audit))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})
	return r
}
