package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
	"github.com/houzhh15/weeknote/cmd/server/internal/services"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/util"
)

// nowFunc 便于测试固定新建周报的默认日期
var nowFunc = time.Now

// parseFolderScope 解析 folderId 查询参数：inbox、all 或具体 id，缺省为 all
func parseFolderScope(v string) (store.FolderScope, error) {
	switch v {
	case "", "all":
		return store.FolderScope{All: true}, nil
	case "inbox":
		return store.FolderScope{Inbox: true}, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return store.FolderScope{}, fmt.Errorf("invalid folderId %q", v)
	}
	return store.FolderScope{ID: id}, nil
}

// HandleListNotes GET /api/notes
// 查询参数: status=current|archived, search, tagId, folderId=inbox|all|<id>
func HandleListNotes(notes store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}

		filter := store.NoteFilter{
			UserID: claims.UserID,
			Search: strings.TrimSpace(c.Query("search")),
		}
		switch c.DefaultQuery("status", "current") {
		case "current":
		case "archived":
			filter.Archived = true
		default:
			badRequestResponse(c, "status must be current or archived")
			return
		}
		if v := c.Query("tagId"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				badRequestResponse(c, "invalid tagId")
				return
			}
			filter.TagID = id
		}
		scope, err := parseFolderScope(c.Query("folderId"))
		if err != nil {
			badRequestResponse(c, err.Error())
			return
		}
		filter.Folder = scope

		list, err := notes.ListNotes(c.Request.Context(), filter)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, list)
	}
}

// HandleGetNote GET /api/notes/:id
func HandleGetNote(notes store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		n, err := notes.GetNote(c.Request.Context(), claims.UserID, id)
		if err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		successResponse(c, n)
	}
}

// createNoteRequest 新建笔记请求体
type createNoteRequest struct {
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Type      store.NoteType  `json:"type"`
	FolderID  *int64          `json:"folderId"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
}

// HandleCreateNote POST /api/notes
// 周报默认使用当前周的起止日期，并补齐 keyFocus/regularWork 两个分区
func HandleCreateNote(notes store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		var req createNoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		if req.Type == "" {
			req.Type = store.NoteNormal
		}

		nn := store.NewNote{
			UserID:   claims.UserID,
			FolderID: req.FolderID,
			Title:    strings.TrimSpace(req.Title),
			Content:  req.Content,
			Type:     req.Type,
		}
		switch req.Type {
		case store.NoteNormal:
		case store.NoteWeekly:
			week := util.WeekOf(nowFunc())
			if req.StartDate == "" {
				req.StartDate = week.Start.Format(util.DateLayout)
			}
			if req.EndDate == "" {
				req.EndDate = week.End.Format(util.DateLayout)
			}
			if _, _, err := util.ParseDateRange(req.StartDate, req.EndDate); err != nil {
				badRequestResponse(c, err.Error())
				return
			}
			content, err := weekly.StampContent(req.Content, req.StartDate, req.EndDate)
			if err != nil {
				internalErrorResponse(c, err)
				return
			}
			nn.Content = content
			nn.StartDate, nn.EndDate = req.StartDate, req.EndDate
			if nn.Title == "" {
				nn.Title = fmt.Sprintf("周报 %s ~ %s", req.StartDate, req.EndDate)
			}
		default:
			badRequestResponse(c, "type must be normal or weekly")
			return
		}

		n, err := notes.CreateNote(c.Request.Context(), nn)
		if err != nil {
			storeErrorResponse(c, "folder", err)
			return
		}
		createdResponse(c, n)
	}
}

// HandleUpdateNote PUT /api/notes/:id
func HandleUpdateNote(notes store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Title   string          `json:"title"`
			Content json.RawMessage `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		n, err := notes.UpdateNote(c.Request.Context(), claims.UserID, id, strings.TrimSpace(req.Title), req.Content)
		if err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		successResponse(c, n)
	}
}

// HandleDeleteNote DELETE /api/notes/:id
func HandleDeleteNote(notes store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := notes.DeleteNote(c.Request.Context(), claims.UserID, id); err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		successResponseWithMessage(c, "note deleted")
	}
}

// HandleSetArchived POST /api/notes/:id/archive 与 /unarchive
func HandleSetArchived(notes store.NoteStore, archived bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := notes.SetArchived(c.Request.Context(), claims.UserID, id, archived); err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		successResponse(c, gin.H{"id": id, "archived": archived})
	}
}

// HandleMoveNote PUT /api/notes/:id/move
// folderId 为 null 表示移回收件箱
func HandleMoveNote(notes store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			FolderID *int64 `json:"folderId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		if err := notes.MoveNote(c.Request.Context(), claims.UserID, id, req.FolderID); err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		successResponse(c, gin.H{"id": id, "folderId": req.FolderID})
	}
}

// HandleSetStatus POST /api/notes/:id/submit 与 /withdraw
// 只有周报可以提交；状态变更会使管理后台统计缓存失效
func HandleSetStatus(notes store.NoteStore, stats services.StatisticsService, auditLogger audit.AuditLogger, status weekly.Status) gin.HandlerFunc {
	action := audit.ActionSubmitReport
	if status == weekly.StatusDraft {
		action = audit.ActionWithdrawReport
	}
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		n, err := notes.SetStatus(c.Request.Context(), claims.UserID, id, status)
		if err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		stats.Invalidate()
		_ = auditLogger.LogActionSimple(claims.Username, action, strconv.FormatInt(id, 10), string(status))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": n})
	}
}
