package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditAction 审计日志操作类型
type AuditAction string

const (
	ActionLogin           AuditAction = "login"
	ActionCreateUser      AuditAction = "create_user"
	ActionDeleteUser      AuditAction = "delete_user"
	ActionSubmitReport    AuditAction = "submit_report"
	ActionWithdrawReport  AuditAction = "withdraw_report"
	ActionAggregateReport AuditAction = "aggregate_reports"
	ActionExportReport    AuditAction = "export_report"
)

// AuditEntry 审计日志条目
type AuditEntry struct {
	Timestamp  time.Time   `json:"timestamp"`
	Operator   string      `json:"operator"`          // 操作者用户名
	Action     AuditAction `json:"action"`            // 操作类型
	ResourceID string      `json:"resource_id"`       // 资源标识 (user_id, note_id, 周报 id 列表等)
	Before     interface{} `json:"before,omitempty"`  // 操作前状态 (JSON对象)
	After      interface{} `json:"after,omitempty"`   // 操作后状态 (JSON对象)
	Details    string      `json:"details,omitempty"` // 额外详情
}

// AuditLogger 审计日志记录器接口
type AuditLogger interface {
	// LogAction 记录审计日志
	LogAction(operator string, action AuditAction, resourceID string, before, after interface{}, details string) error

	// LogActionSimple 记录简单审计日志 (不包含before/after)
	LogActionSimple(operator string, action AuditAction, resourceID string, details string) error
}

// RotatingAuditLogger 以 JSONL 追加写入单个文件，按大小轮转
type RotatingAuditLogger struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
	now    func() time.Time
}

// NewRotatingAuditLogger 创建审计日志记录器
func NewRotatingAuditLogger(path string) (*RotatingAuditLogger, error) {
	if path == "" {
		return nil, fmt.Errorf("audit log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit logs directory: %w", err)
	}
	return &RotatingAuditLogger{
		writer: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     90,
			Compress:   true,
		},
		now: time.Now,
	}, nil
}

// LogAction 记录审计日志
func (r *RotatingAuditLogger) LogAction(operator string, action AuditAction, resourceID string, before, after interface{}, details string) error {
	entry := AuditEntry{
		Timestamp:  r.now().UTC(),
		Operator:   operator,
		Action:     action,
		ResourceID: resourceID,
		Before:     before,
		After:      after,
		Details:    details,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// LogActionSimple 记录简单审计日志
func (r *RotatingAuditLogger) LogActionSimple(operator string, action AuditAction, resourceID string, details string) error {
	return r.LogAction(operator, action, resourceID, nil, nil, details)
}

// Close 关闭底层文件
func (r *RotatingAuditLogger) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

// NopLogger 丢弃所有审计记录
type NopLogger struct{}

func (NopLogger) LogAction(string, AuditAction, string, interface{}, interface{}, string) error {
	return nil
}

func (NopLogger) LogActionSimple(string, AuditAction, string, string) error { return nil }
