package main

import (
	// Standard library
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"

	// Internal packages
	"github.com/houzhh15/weeknote/cmd/server/internal/api"
	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/config"
	"github.com/houzhh15/weeknote/cmd/server/internal/reportdoc"
	"github.com/houzhh15/weeknote/cmd/server/internal/services"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
	"github.com/houzhh15/weeknote/pkg/logger"
)

// generateRandomPassword generates a cryptographically secure random password
func generateRandomPassword(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("failed to generate random password: %v", err))
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		WithSource:  !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port, "driver", cfg.Data.Driver)
	appLogger.Debug(cfg.PrintConfig())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open storage and apply schema
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := store.Open(openCtx, cfg.Data.Driver, cfg.DSN())
	cancelOpen()
	if err != nil {
		appLogger.Error("storage init failed", "driver", cfg.Data.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	appLogger.Info("storage ready", "driver", cfg.Data.Driver)

	// Initialize user manager
	userManager, err := users.NewManager(db, []byte(cfg.Security.JWTSecret), cfg.Security.TokenTTL)
	if err != nil {
		appLogger.Error("user manager init failed", "error", err)
		os.Exit(1)
	}

	// Ensure default admin with config-based password
	adminPassword := cfg.Security.AdminDefaultPassword
	if adminPassword == "" {
		if cfg.IsDevelopment() {
			// Generate random password for dev environment
			adminPassword = generateRandomPassword(16)
		} else {
			appLogger.Error("admin default password not set in production/staging")
			os.Exit(1)
		}
	}
	created, err := userManager.EnsureDefaultAdmin(context.Background(), adminPassword)
	if err != nil {
		appLogger.Warn("failed to ensure default admin", "error", err)
	} else if created && cfg.Security.AdminDefaultPassword == "" {
		appLogger.Warn("generated random admin password", "username", "admin", "password", adminPassword)
	}

	// Initialize audit logger
	auditLogger, err := audit.NewRotatingAuditLogger(cfg.Log.AuditFile)
	if err != nil {
		appLogger.Error("audit logger init failed", "error", err)
		os.Exit(1)
	}
	defer auditLogger.Close()
	appLogger.Info("audit logger ready", "file", cfg.Log.AuditFile)

	// Initialize report services
	statisticsService := services.NewStatisticsService(db, time.Minute)
	aggregationService := services.NewAggregationService(db, db, reportdoc.NewRenderer(), services.AggregationOptions{
		FetchTimeout: cfg.Server.FetchTimeout,
		ArchiveDir:   cfg.Data.ReportDir,
		Logger:       logInstance,
	})
	appLogger.Info("report services ready", "fetch_timeout", cfg.Server.FetchTimeout, "archive_dir", cfg.Data.ReportDir)

	r := api.NewRouter(api.Deps{
		Store:          db,
		Users:          userManager,
		Aggregation:    aggregationService,
		Statistics:     statisticsService,
		Audit:          auditLogger,
		AuthLogger:     logInstance.With("component", "auth-middleware"),
		AllowedOrigins: cfg.Security.CORSAllowedOrigins,
		StartedAt:      time.Now(),
	})

	// Create HTTP server with graceful shutdown
	serverAddr := cfg.GetServerAddr()
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting", "addr", serverAddr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}
