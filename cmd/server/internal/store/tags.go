package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

func (s *SQLStore) ListTags(ctx context.Context, userID int64) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, user_id, name FROM tags WHERE user_id = ? ORDER BY name, id`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]Tag, 0)
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *SQLStore) CreateTag(ctx context.Context, userID int64, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrInvalid)
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.q(`INSERT INTO tags (user_id, name) VALUES (?, ?) RETURNING id`), userID, name).Scan(&id)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return &Tag{ID: id, UserID: userID, Name: name}, nil
}

func (s *SQLStore) RenameTag(ctx context.Context, userID, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: tag name is required", ErrInvalid)
	}
	return mapConstraint(affected(s.db.ExecContext(ctx,
		s.q(`UPDATE tags SET name = ? WHERE id = ? AND user_id = ?`), name, id, userID)))
}

func (s *SQLStore) DeleteTag(ctx context.Context, userID, id int64) error {
	return affected(s.db.ExecContext(ctx, s.q(`DELETE FROM tags WHERE id = ? AND user_id = ?`), id, userID))
}

func (s *SQLStore) AttachTag(ctx context.Context, userID, noteID int64, name string) (*Tag, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("%w: tag name is required", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, s.q(`SELECT 1 FROM notes WHERE id = ? AND user_id = ?`), noteID, userID).Scan(&one)
	if err != nil {
		return nil, false, notFound(err)
	}

	tag := Tag{UserID: userID, Name: name}
	err = tx.QueryRowContext(ctx, s.q(`SELECT id FROM tags WHERE user_id = ? AND name = ?`), userID, name).Scan(&tag.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = tx.QueryRowContext(ctx, s.q(`INSERT INTO tags (user_id, name) VALUES (?, ?) RETURNING id`), userID, name).Scan(&tag.ID)
		if err != nil {
			return nil, false, mapConstraint(err)
		}
	case err != nil:
		return nil, false, err
	}

	var exists int
	err = tx.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM note_tags WHERE note_id = ? AND tag_id = ?`), noteID, tag.ID).Scan(&exists)
	if err != nil {
		return nil, false, err
	}
	if exists > 0 {
		return &tag, false, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO note_tags (note_id, tag_id) VALUES (?, ?)`), noteID, tag.ID); err != nil {
		return nil, false, mapConstraint(err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`UPDATE notes SET updated_at = ? WHERE id = ?`), s.now(), noteID); err != nil {
		return nil, false, err
	}
	return &tag, true, tx.Commit()
}

func (s *SQLStore) DetachTag(ctx context.Context, userID, noteID, tagID int64) error {
	return affected(s.db.ExecContext(ctx, s.q(`DELETE FROM note_tags
		WHERE note_id = ? AND tag_id = ?
		AND EXISTS (SELECT 1 FROM notes WHERE id = ? AND user_id = ?)`),
		noteID, tagID, noteID, userID))
}
