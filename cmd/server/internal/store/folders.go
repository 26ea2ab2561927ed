package store

import (
	"context"
	"fmt"
	"strings"
)

func (s *SQLStore) ListFolders(ctx context.Context, userID int64) ([]Folder, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, user_id, name FROM folders WHERE user_id = ? ORDER BY name, id`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := make([]Folder, 0)
	for rows.Next() {
		var f Folder
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *SQLStore) CreateFolder(ctx context.Context, userID int64, name string) (*Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", ErrInvalid)
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO folders (user_id, name) VALUES (?, ?) RETURNING id`), userID, name).Scan(&id)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return &Folder{ID: id, UserID: userID, Name: name}, nil
}

func (s *SQLStore) RenameFolder(ctx context.Context, userID, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: folder name is required", ErrInvalid)
	}
	return affected(s.db.ExecContext(ctx, s.q(`UPDATE folders SET name = ? WHERE id = ? AND user_id = ?`), name, id, userID))
}

// DeleteFolder 删除文件夹，其中的笔记回到收件箱（ON DELETE SET NULL）
func (s *SQLStore) DeleteFolder(ctx context.Context, userID, id int64) error {
	return affected(s.db.ExecContext(ctx, s.q(`DELETE FROM folders WHERE id = ? AND user_id = ?`), id, userID))
}

func (s *SQLStore) ownsFolder(ctx context.Context, userID, folderID int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT 1 FROM folders WHERE id = ? AND user_id = ?`), folderID, userID).Scan(&one)
	return notFound(err)
}
