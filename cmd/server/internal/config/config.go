package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Log      LogConfig
	Security SecurityConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env          string        `envconfig:"ENV" default:"dev"` // dev, staging, production
	Port         string        `envconfig:"PORT" default:"8000"`
	FetchTimeout time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
}

// DataConfig 存储配置
type DataConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"sqlite"` // sqlite, postgres
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/weeknote.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	ReportDir   string `envconfig:"REPORT_DIR"` // 导出的周报副本目录，空则不落盘
}

// LogConfig 日志配置
type LogConfig struct {
	Level     string `envconfig:"LOG_LEVEL" default:"info"`
	Format    string `envconfig:"LOG_FORMAT" default:"console"` // console, json
	File      string `envconfig:"LOG_FILE"`
	AuditFile string `envconfig:"AUDIT_LOG_FILE" default:"./audit_logs/audit.log"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWTSecret            string        `envconfig:"USER_JWT_SECRET"`
	TokenTTL             time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	AdminDefaultPassword string        `envconfig:"ADMIN_DEFAULT_PASSWORD"`
	CORSAllowedOrigins   []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// GlobalConfig 全局配置实例
var GlobalConfig *Config

// envPrefix 带前缀的变量优先（WEEKNOTE_SERVER_PORT），未设置时回退到 tag 中的名字（PORT）
const envPrefix = "WEEKNOTE"

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	cfg.Security.CORSAllowedOrigins = trimList(cfg.Security.CORSAllowedOrigins)
	cfg.Data.Driver = strings.ToLower(strings.TrimSpace(cfg.Data.Driver))

	GlobalConfig = &cfg
	return &cfg, nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errors []string

	// 1. JWT Secret 验证
	if cfg.Security.JWTSecret == "" {
		errors = append(errors, "USER_JWT_SECRET is required")
	} else if len(cfg.Security.JWTSecret) < 32 {
		errors = append(errors, "USER_JWT_SECRET must be at least 32 characters long")
	}
	if cfg.Security.TokenTTL <= 0 {
		errors = append(errors, "TOKEN_TTL must be positive")
	}

	// 2. 生产环境必须配置管理员密码
	if cfg.Server.Env == "production" {
		if cfg.Security.AdminDefaultPassword == "" {
			errors = append(errors, "ADMIN_DEFAULT_PASSWORD is required in production environment")
		}
		if cfg.Security.AdminDefaultPassword == "admin123" ||
			cfg.Security.AdminDefaultPassword == "changeme" {
			errors = append(errors, "ADMIN_DEFAULT_PASSWORD cannot be a weak/default password in production")
		}
		if len(cfg.Security.AdminDefaultPassword) < 8 {
			errors = append(errors, "ADMIN_DEFAULT_PASSWORD must be at least 8 characters long in production")
		}
	}

	// 3. 存储驱动
	switch cfg.Data.Driver {
	case "sqlite":
		if cfg.Data.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	case "postgres":
		if cfg.Data.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid DB_DRIVER: %s (must be: sqlite, postgres)", cfg.Data.Driver))
	}

	// 4. 端口验证
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}
	if cfg.Server.FetchTimeout <= 0 {
		errors = append(errors, "FETCH_TIMEOUT must be positive")
	}

	// 5. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 6. 日志格式验证
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 7. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// IsDevelopment 判断是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "dev" || c.Server.Env == "development"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// DSN 返回当前驱动对应的连接串
func (c *Config) DSN() string {
	if c.Data.Driver == "postgres" {
		return c.Data.PostgresDSN
	}
	return c.Data.SQLitePath
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Fetch Timeout: %s
  Storage:
    - Driver: %s
    - SQLite Path: %s
    - Postgres DSN: %s
    - Report Dir: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s
    - Audit File: %s
  Security:
    - JWT Secret: %s
    - Token TTL: %s
    - Admin Password: %s
    - CORS Origins: %v`,
		c.Server.Env,
		c.Server.Port,
		c.Server.FetchTimeout,
		c.Data.Driver,
		c.Data.SQLitePath,
		maskSecret(c.Data.PostgresDSN),
		orNotSet(c.Data.ReportDir),
		c.Log.Level,
		c.Log.Format,
		orNotSet(c.Log.File),
		c.Log.AuditFile,
		maskSecret(c.Security.JWTSecret),
		c.Security.TokenTTL,
		maskSecret(c.Security.AdminDefaultPassword),
		c.Security.CORSAllowedOrigins,
	)
}

// 辅助函数

// trimList 去掉逗号分隔项两侧空白与空项
func trimList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func orNotSet(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
