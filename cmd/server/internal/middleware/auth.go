package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
)

const (
	ctxUser   = "user"
	ctxClaims = "claims"
)

// TokenParser 校验 bearer token
type TokenParser interface {
	ParseToken(token string) (*users.Claims, error)
}

// Auth 要求请求携带有效的 Bearer token，并把 claims 写入上下文
func Auth(parser TokenParser, authLogger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		auth := c.GetHeader("Authorization")
		if len(auth) < 8 || !strings.HasPrefix(auth, "Bearer ") {
			authPreview := auth
			if len(authPreview) > 20 {
				authPreview = authPreview[:20] + "..."
			}
			authLogger.Warn("missing bearer token",
				"method", c.Request.Method,
				"path", path,
				"auth_preview", authPreview,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := parser.ParseToken(auth[7:])
		if err != nil {
			authLogger.Warn("invalid token",
				"method", c.Request.Method,
				"path", path,
				"error", err,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUser, claims.Username)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireRole 仅允许指定角色访问，须挂在 Auth 之后
func RequireRole(role store.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// CurrentUser 取出 Auth 写入的 claims
func CurrentUser(c *gin.Context) (*users.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*users.Claims)
	return claims, ok && claims != nil
}

// SetCurrentUser 供测试或内部转发直接注入身份
func SetCurrentUser(c *gin.Context, claims *users.Claims) {
	c.Set(ctxUser, claims.Username)
	c.Set(ctxClaims, claims)
}
