package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Env: "dev", Port: "8000", FetchTimeout: 10 * time.Second},
		Data:   DataConfig{Driver: "sqlite", SQLitePath: "./data/weeknote.db"},
		Log:    LogConfig{Level: "info", Format: "console"},
		Security: SecurityConfig{
			JWTSecret: strings.Repeat("k", 32),
			TokenTTL:  168 * time.Hour,
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("USER_JWT_SECRET", strings.Repeat("s", 40))
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.example , ,http://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.FetchTimeout)
	assert.Equal(t, "sqlite", cfg.Data.Driver)
	assert.Equal(t, 168*time.Hour, cfg.Security.TokenTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Security.CORSAllowedOrigins)
	assert.Same(t, cfg, GlobalConfig)
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost/db")
	t.Setenv("FETCH_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Data.Driver)
	assert.Equal(t, "postgres://u:p@localhost/db", cfg.DSN())
	assert.Equal(t, 3*time.Second, cfg.Server.FetchTimeout)
	assert.Equal(t, ":9090", cfg.GetServerAddr())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Security.JWTSecret = "" }, "USER_JWT_SECRET is required"},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }, "at least 32 characters"},
		{"bad port", func(c *Config) { c.Server.Port = "80a" }, "invalid PORT"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "invalid PORT"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "invalid LOG_LEVEL"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "invalid LOG_FORMAT"},
		{"bad env", func(c *Config) { c.Server.Env = "qa" }, "invalid ENV"},
		{"bad driver", func(c *Config) { c.Data.Driver = "mysql" }, "invalid DB_DRIVER"},
		{"postgres without dsn", func(c *Config) { c.Data.Driver = "postgres" }, "POSTGRES_DSN is required"},
		{"zero fetch timeout", func(c *Config) { c.Server.FetchTimeout = 0 }, "FETCH_TIMEOUT"},
		{"weak prod password", func(c *Config) {
			c.Server.Env = "production"
			c.Security.AdminDefaultPassword = "changeme"
		}, "weak/default password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrintConfig_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Security.JWTSecret = "abcd-very-secret-value-wxyz-1234567890"
	cfg.Security.AdminDefaultPassword = "pw"
	out := cfg.PrintConfig()

	assert.NotContains(t, out, cfg.Security.JWTSecret)
	assert.Contains(t, out, "abcd***7890")
	assert.Contains(t, out, "Admin Password: ***")
	assert.Contains(t, out, "Report Dir: <not set>")
}
