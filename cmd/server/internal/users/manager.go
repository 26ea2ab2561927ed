package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/houzhh15/weeknote/cmd/server/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	// ErrLastAdmin 删除最后一个管理员会导致后台不可用
	ErrLastAdmin = errors.New("cannot delete the last admin")
)

// Claims 自定义 JWT claims
type Claims struct {
	UserID   int64      `json:"id"`
	Username string     `json:"username"`
	Role     store.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin 是否管理员
func (c *Claims) IsAdmin() bool {
	return c.Role == store.RoleAdmin
}

// Manager 管理用户及 JWT
type Manager struct {
	store     store.UserStore
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewManager 创建管理器，secret 用于 JWT 签名
func NewManager(s store.UserStore, secret []byte, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret key required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{store: s, secretKey: secret, tokenTTL: ttl, now: time.Now}, nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EnsureDefaultAdmin 如果还没有管理员则创建 admin 默认用户，返回是否新建
func (m *Manager) EnsureDefaultAdmin(ctx context.Context, defaultPassword string) (bool, error) {
	n, err := m.store.CountUsersByRole(ctx, store.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := m.CreateUser(ctx, "admin", defaultPassword, store.RoleAdmin); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return false, fmt.Errorf("user 'admin' exists without admin role: %w", err)
		}
		return false, err
	}
	return true, nil
}

// CreateUser 创建用户（用户名唯一）
func (m *Manager) CreateUser(ctx context.Context, username, password string, role store.Role) (*store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password required", store.ErrInvalid)
	}
	if role == "" {
		role = store.RoleMember
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return m.store.CreateUser(ctx, username, hash, role)
}

// ListUsers 返回所有用户
func (m *Manager) ListUsers(ctx context.Context) ([]store.User, error) {
	return m.store.ListUsers(ctx)
}

// DeleteUser 删除用户；不允许删除自己，也不允许删掉最后一个管理员
func (m *Manager) DeleteUser(ctx context.Context, actorID, id int64) (*store.User, error) {
	if actorID == id {
		return nil, fmt.Errorf("%w: cannot delete yourself", store.ErrInvalid)
	}
	u, err := m.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role == store.RoleAdmin {
		n, err := m.store.CountUsersByRole(ctx, store.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if n <= 1 {
			return nil, ErrLastAdmin
		}
	}
	if err := m.store.DeleteUser(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 验证用户名密码
func (m *Manager) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	u, err := m.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GenerateToken 签发带过期时间的 token
func (m *Manager) GenerateToken(u *store.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.tokenTTL)
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.secretKey)
	return signed, exp, err
}

// ParseToken 验证并返回 claims
func (m *Manager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
