package api

import (
	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/store"
)

// HandleListFolders GET /api/folders
func HandleListFolders(folders store.FolderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		list, err := folders.ListFolders(c.Request.Context(), claims.UserID)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		successResponse(c, list)
	}
}

// HandleCreateFolder POST /api/folders
func HandleCreateFolder(folders store.FolderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		name, ok := bindName(c)
		if !ok {
			return
		}
		f, err := folders.CreateFolder(c.Request.Context(), claims.UserID, name)
		if err != nil {
			storeErrorResponse(c, "folder", err)
			return
		}
		createdResponse(c, f)
	}
}

// HandleRenameFolder PUT /api/folders/:id
func HandleRenameFolder(folders store.FolderStore) gin.HandlerFunc {
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
		if err := folders.RenameFolder(c.Request.Context(), claims.UserID, id, name); err != nil {
			storeErrorResponse(c, "folder", err)
			return
		}
		successResponse(c, store.Folder{ID: id, UserID: claims.UserID, Name: name})
	}
}

// HandleDeleteFolder DELETE /api/folders/:id
// 文件夹内的笔记回到收件箱
func HandleDeleteFolder(folders store.FolderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := folders.DeleteFolder(c.Request.Context(), claims.UserID, id); err != nil {
			storeErrorResponse(c, "folder", err)
			return
		}
		successResponseWithMessage(c, "folder deleted")
	}
}
