package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect 区分占位符与建表语句
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore 基于 database/sql 的 Store 实现
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

// Open 按驱动名打开数据库并完成建表
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var (
		db  *sql.DB
		d   Dialect
		err error
	)
	switch Dialect(driver) {
	case DialectSQLite, "":
		db, err = OpenSQLite(dsn)
		d = DialectSQLite
	case DialectPostgres:
		db, err = OpenPostgres(dsn)
		d = DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
	if err != nil {
		return nil, err
	}
	s := NewSQLStore(db, d)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s schema: %w", d, err)
	}
	return s, nil
}

// NewSQLStore 使用已有连接构造 Store（测试与工厂复用）
func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d, now: func() time.Time { return time.Now().UTC() }}
}

// DB 暴露底层连接
func (s *SQLStore) DB() *sql.DB { return s.db }

// Ping 健康检查
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭连接池
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate 执行幂等建表
func (s *SQLStore) Migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if s.dialect == DialectPostgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// q 把 ? 占位符改写为当前方言的形式
func (s *SQLStore) q(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// placeholders 生成 "?,?,?"
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// affected 将 0 行受影响转换为 ErrNotFound
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// mapConstraint 将驱动层唯一约束错误归一为 ErrConflict
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return isSQLiteUnique(err) || isPostgresUnique(err)
}
