package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/store"
)

type nameRequest struct {
	Name string `json:"name"`
}

// bindName 解析 {"name": "..."}，名称去空白后不能为空
func bindName(c *gin.Context) (string, bool) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body")
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		badRequestResponse(c, "name is required")
		return "", false
	}
	return name, true
}

// HandleListTags GET /api/tags
func HandleListTags(tags store.TagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		list, err := tags.ListTags(c.Request.Context(), claims.UserID)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, list)
	}
}

// HandleCreateTag POST /api/tags
func HandleCreateTag(tags store.TagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		name, ok := bindName(c)
		if !ok {
			return
		}
		t, err := tags.CreateTag(c.Request.Context(), claims.UserID, name)
		if err != nil {
			storeErrorResponse(c, "tag", err)
			return
		}
		createdResponse(c, t)
	}
}

// HandleRenameTag PUT /api/tags/:id
func HandleRenameTag(tags store.TagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		name, ok := bindName(c)
		if !ok {
			return
		}
		if err := tags.RenameTag(c.Request.Context(), claims.UserID, id, name); err != nil {
			storeErrorResponse(c, "tag", err)
			return
		}
		successResponse(c, store.Tag{ID: id, UserID: claims.UserID, Name: name})
	}
}

// HandleDeleteTag DELETE /api/tags/:id
func HandleDeleteTag(tags store.TagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := tags.DeleteTag(c.Request.Context(), claims.UserID, id); err != nil {
			storeErrorResponse(c, "tag", err)
			return
		}
		successResponseWithMessage(c, "tag deleted")
	}
}

// HandleAttachTag POST /api/notes/:id/tags
// 按名称查找或创建标签；新关联返回 201，已关联返回 200
func HandleAttachTag(tags store.TagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		noteID, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			TagName string `json:"tagName"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		name := strings.TrimSpace(req.TagName)
		if name == "" {
			badRequestResponse(c, "tagName is required")
			return
		}

		t, attached, err := tags.AttachTag(c.Request.Context(), claims.UserID, noteID, name)
		if err != nil {
			storeErrorResponse(c, "note", err)
			return
		}
		code := http.StatusOK
		if attached {
			code = http.StatusCreated
		}
		c.JSON(code, gin.H{"success": true, "data": t, "attached": attached})
	}
}

// HandleDetachTag DELETE /api/notes/:id/tags/:tagId
func HandleDetachTag(tags store.TagStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		noteID, ok := paramID(c, "id")
		if !ok {
			return
		}
		tagID, ok := paramID(c, "tagId")
		if !ok {
			return
		}
		if err := tags.DetachTag(c.Request.Context(), claims.UserID, noteID, tagID); err != nil {
			storeErrorResponse(c, "tag", err)
			return
		}
		successResponseWithMessage(c, "tag detached")
	}
}
