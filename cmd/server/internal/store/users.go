package store

import (
	"context"
	"fmt"
)

const userColumns = `id, username, password_hash, role, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(r rowScanner) (*User, error) {
	var u User
	if err := r.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, username, passwordHash string, role Role) (*User, error) {
	if username == "" || passwordHash == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalid)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalid, role)
	}
	now := s.now()
	var id int64
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		username, passwordHash, string(role), now,
	).Scan(&id)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash, Role: role, CreatedAt: now}, nil
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	u, err := scanUser(row)
	return u, notFound(err)
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	return u, notFound(err)
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *SQLStore) DeleteUser(ctx context.Context, id int64) error {
	return affected(s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), id))
}

func (s *SQLStore) CountUsersByRole(ctx context.Context, role Role) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM users WHERE role = ?`), string(role)).Scan(&n)
	return n, err
}

func (s *SQLStore) ListMemberUsernames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT username FROM users WHERE role = ? ORDER BY id`), string(RoleMember))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
