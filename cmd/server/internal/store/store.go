// Package store 提供用户、笔记、文件夹、标签与周报的持久化。
//
// 同一套 SQL 实现同时服务 SQLite (modernc.org/sqlite) 与 PostgreSQL (pgx)，
// 差异只在建表语句与占位符风格上。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
)

var (
	// ErrNotFound 记录不存在或不属于当前用户
	ErrNotFound = errors.New("store: not found")
	// ErrConflict 违反唯一约束（用户名、同一用户下的标签名等）
	ErrConflict = errors.New("store: conflict")
	// ErrInvalid 参数不满足业务约束
	ErrInvalid = errors.New("store: invalid argument")
)

// Role 用户角色
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// NoteType 笔记类型
type NoteType string

const (
	NoteNormal NoteType = "normal"
	NoteWeekly NoteType = "weekly"
)

// User 用户记录；PasswordHash 永不序列化
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Folder 文件夹
type Folder struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// Tag 标签，名称在同一用户下唯一
type Tag struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// Note 笔记；周报的 Content 为 weekly.Content 的 JSON 形式
type Note struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	FolderID  *int64          `json:"folder_id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content"`
	Type      NoteType        `json:"type"`
	Status    weekly.Status   `json:"status"`
	Archived  bool            `json:"archived"`
	StartDate string          `json:"start_date,omitempty"`
	EndDate   string          `json:"end_date,omitempty"`
	Author    string          `json:"author,omitempty"`
	Tags      []Tag           `json:"tags"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FolderScope 列表查询时的文件夹范围
type FolderScope struct {
	All   bool  // 不限文件夹
	Inbox bool  // 未归档到任何文件夹
	ID    int64 // 指定文件夹
}

// NoteFilter 笔记列表过滤条件
type NoteFilter struct {
	UserID   int64
	Archived bool
	Search   string
	TagID    int64
	Folder   FolderScope
}

// NewNote 创建笔记的参数
type NewNote struct {
	UserID    int64
	FolderID  *int64
	Title     string
	Content   json.RawMessage
	Type      NoteType
	StartDate string
	EndDate   string
}

// ReportRecord 周报的原始记录，Content 保持存储中的原样，由调用方解析
type ReportRecord struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Status    weekly.Status   `json:"status"`
	Content   json.RawMessage `json:"content"`
	StartDate string          `json:"start_date,omitempty"`
	EndDate   string          `json:"end_date,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Stats 管理后台统计
type Stats struct {
	TotalNotes       int `json:"totalNotes"`
	NormalNotes      int `json:"normalNotes"`
	WeeklyNotes      int `json:"weeklyNotes"`
	ArchivedNotes    int `json:"archivedNotes"`
	SubmittedReports int `json:"submittedReports"`
	Users            int `json:"users"`
}

// UserStore 用户存储
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, role Role) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountUsersByRole(ctx context.Context, role Role) (int, error)
	// ListMemberUsernames 返回全部 member 角色用户名，按创建顺序
	ListMemberUsernames(ctx context.Context) ([]string, error)
}

// NoteStore 笔记存储，所有操作都按 userID 限定归属
type NoteStore interface {
	CreateNote(ctx context.Context, n NewNote) (*Note, error)
	GetNote(ctx context.Context, userID, id int64) (*Note, error)
	ListNotes(ctx context.Context, f NoteFilter) ([]Note, error)
	UpdateNote(ctx context.Context, userID, id int64, title string, content json.RawMessage) (*Note, error)
	DeleteNote(ctx context.Context, userID, id int64) error
	SetArchived(ctx context.Context, userID, id int64, archived bool) error
	MoveNote(ctx context.Context, userID, id int64, folderID *int64) error
	SetStatus(ctx context.Context, userID, id int64, status weekly.Status) (*Note, error)
}

// FolderStore 文件夹存储
type FolderStore interface {
	ListFolders(ctx context.Context, userID int64) ([]Folder, error)
	CreateFolder(ctx context.Context, userID int64, name string) (*Folder, error)
	RenameFolder(ctx context.Context, userID, id int64, name string) error
	DeleteFolder(ctx context.Context, userID, id int64) error
}

// TagStore 标签存储
type TagStore interface {
	ListTags(ctx context.Context, userID int64) ([]Tag, error)
	CreateTag(ctx context.Context, userID int64, name string) (*Tag, error)
	RenameTag(ctx context.Context, userID, id int64, name string) error
	DeleteTag(ctx context.Context, userID, id int64) error
	// AttachTag 按名称查找或创建标签并关联到笔记；已关联时 attached 为 false
	AttachTag(ctx context.Context, userID, noteID int64, name string) (tag *Tag, attached bool, err error)
	DetachTag(ctx context.Context, userID, noteID, tagID int64) error
}

// ReportStore 管理端的周报与统计查询
type ReportStore interface {
	// ListSubmittedWeekly 返回 ids 中类型为 weekly 且状态为 submitted 的周报，
	// 不存在或不符合条件的 id 直接忽略
	ListSubmittedWeekly(ctx context.Context, ids []int64) ([]ReportRecord, error)
	// ListSubmittedWeeklyBetween 返回与 [start, end] 有交集的已提交周报，空字符串表示不限
	ListSubmittedWeeklyBetween(ctx context.Context, start, end string) ([]ReportRecord, error)
	ListAllNotes(ctx context.Context) ([]Note, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Store 聚合全部存储能力
type Store interface {
	UserStore
	NoteStore
	FolderStore
	TagStore
	ReportStore
	Ping(ctx context.Context) error
	Close() error
}
