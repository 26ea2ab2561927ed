package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/services"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
	"github.com/houzhh15/weeknote/cmd/server/internal/util"
)

// HandleGetStats GET /api/admin/stats
func HandleGetStats(stats services.StatisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := stats.GetStats(c.Request.Context())
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, st)
	}
}

// HandleListAllNotes GET /api/admin/notes
// 返回全部用户的笔记，附带作者
func HandleListAllNotes(reports store.ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := reports.ListAllNotes(c.Request.Context())
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, list)
	}
}

// HandleListWeeklyReports GET /api/admin/weekly-reports?startDate=&endDate=
// 返回与日期区间有交集的已提交周报，两个参数都可省略
func HandleListWeeklyReports(reports store.ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := strings.TrimSpace(c.Query("startDate"))
		end := strings.TrimSpace(c.Query("endDate"))
		if _, _, err := util.ParseDateRange(start, end); err != nil {
			badRequestResponse(c, err.Error())
			return
		}
		list, err := reports.ListSubmittedWeeklyBetween(c.Request.Context(), start, end)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, list)
	}
}

// HandleListUsers GET /api/admin/users
func HandleListUsers(userManager *users.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := userManager.ListUsers(c.Request.Context())
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, list)
	}
}

// HandleCreateUser POST /api/admin/users
// role 缺省为 member
func HandleCreateUser(userManager *users.Manager, auditLogger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string     `json:"username"`
			Password string     `json:"password"`
			Role     store.Role `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Username) == "" {
			badRequestResponse(c, "username is required")
			return
		}
		if req.Password == "" {
			badRequestResponse(c, "password is required")
			return
		}
		if req.Role != "" && !req.Role.Valid() {
			badRequestResponse(c, "role must be admin or member")
			return
		}

		u, err := userManager.CreateUser(c.Request.Context(), req.Username, req.Password, req.Role)
		if err != nil {
			storeErrorResponse(c, "user", err)
			return
		}
		_ = auditLogger.LogAction(currentUser(c), audit.ActionCreateUser, strconv.FormatInt(u.ID, 10), nil, u, "")
		createdResponse(c, u)
	}
}

// HandleDeleteUser DELETE /api/admin/users/:id
// 不能删除自己，也不能删除最后一个管理员
func HandleDeleteUser(userManager *users.Manager, auditLogger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		u, err := userManager.DeleteUser(c.Request.Context(), claims.UserID, id)
		if err != nil {
			if errors.Is(err, users.ErrLastAdmin) {
				conflictResponse(c, err.Error())
				return
			}
			storeErrorResponse(c, "user", err)
			return
		}
		_ = auditLogger.LogAction(claims.Username, audit.ActionDeleteUser, strconv.FormatInt(id, 10), u, nil, "")
		successResponseWithMessage(c, "user deleted")
	}
}
