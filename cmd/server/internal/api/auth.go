package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
)

// HandleLogin POST /api/auth/login
// 校验用户名密码并签发 token
func HandleLogin(userManager *users.Manager, auditLogger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequestResponse(c, "invalid request body")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || req.Password == "" {
			badRequestResponse(c, "username and password are required")
			return
		}

		u, err := userManager.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, users.ErrInvalidCredentials) {
				unauthorizedResponse(c, "invalid username or password")
				return
			}
			internalErrorResponse(c, err)
			return
		}

		token, exp, err := userManager.GenerateToken(u)
		if err != nil {
			internalErrorResponse(c, err)
			return
		}
		_ = auditLogger.LogActionSimple(u.Username, audit.ActionLogin, strconv.FormatInt(u.ID, 10), c.ClientIP())

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"token":     token,
			"expiresAt": exp,
			"user":      u,
		})
	}
}

// HandleMe GET /api/auth/me
func HandleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := mustClaims(c)
		if !ok {
			return
		}
		successResponse(c, gin.H{
			"id":       claims.UserID,
			"username": claims.Username,
			"role":     claims.Role,
		})
	}
}
