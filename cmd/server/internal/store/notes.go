package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
)

const noteColumns = `n.id, n.user_id, n.folder_id, n.title, n.content, n.type, n.status, n.archived,
	n.start_date, n.end_date, u.username, n.created_at, n.updated_at`

const noteFrom = ` FROM notes n JOIN users u ON u.id = n.user_id`

func scanNote(r rowScanner) (*Note, error) {
	var (
		n       Note
		folder  sql.NullInt64
		content string
	)
	err := r.Scan(&n.ID, &n.UserID, &folder, &n.Title, &content, &n.Type, &n.Status, &n.Archived,
		&n.StartDate, &n.EndDate, &n.Author, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if folder.Valid {
		id := folder.Int64
		n.FolderID = &id
	}
	n.Content = json.RawMessage(content)
	n.Tags = []Tag{}
	return &n, nil
}

// normalizeContent 空内容按 JSON 空字符串存储，其余必须是合法 JSON
func normalizeContent(c json.RawMessage) (string, error) {
	if len(c) == 0 {
		return `""`, nil
	}
	if !json.Valid(c) {
		return "", fmt.Errorf("%w: content is not valid JSON", ErrInvalid)
	}
	return string(c), nil
}

func (s *SQLStore) CreateNote(ctx context.Context, in NewNote) (*Note, error) {
	if in.Type == "" {
		in.Type = NoteNormal
	}
	if in.Type != NoteNormal && in.Type != NoteWeekly {
		return nil, fmt.Errorf("%w: note type %q", ErrInvalid, in.Type)
	}
	content, err := normalizeContent(in.Content)
	if err != nil {
		return nil, err
	}
	if in.FolderID != nil {
		if err := s.ownsFolder(ctx, in.UserID, *in.FolderID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	var id int64
	err = s.db.QueryRowContext(ctx, s.q(`INSERT INTO notes
		(user_id, folder_id, title, content, type, status, archived, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.UserID, in.FolderID, in.Title, content, string(in.Type), string(weekly.StatusDraft), false,
		in.StartDate, in.EndDate, now, now,
	).Scan(&id)
	if err != nil {
		return nil, mapConstraint(err)
	}
	return s.GetNote(ctx, in.UserID, id)
}

func (s *SQLStore) GetNote(ctx context.Context, userID, id int64) (*Note, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+noteColumns+noteFrom+` WHERE n.id = ? AND n.user_id = ?`), id, userID)
	n, err := scanNote(row)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.loadTags(ctx, []*Note{n}); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *SQLStore) ListNotes(ctx context.Context, f NoteFilter) ([]Note, error) {
	var (
		where = []string{"n.user_id = ?", "n.archived = ?"}
		args  = []any{f.UserID, f.Archived}
	)
	if f.Search != "" {
		where = append(where, "(LOWER(n.title) LIKE ? OR LOWER(n.content) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if f.TagID > 0 {
		where = append(where, "EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = n.id AND nt.tag_id = ?)")
		args = append(args, f.TagID)
	}
	switch {
	case f.Folder.All:
	case f.Folder.Inbox:
		where = append(where, "n.folder_id IS NULL")
	case f.Folder.ID > 0:
		where = append(where, "n.folder_id = ?")
		args = append(args, f.Folder.ID)
	}

	query := `SELECT ` + noteColumns + noteFrom + ` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY n.updated_at DESC, n.id DESC`
	return s.queryNotes(ctx, s.q(query), args...)
}

func (s *SQLStore) queryNotes(ctx context.Context, query string, args ...any) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var ptrs []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ptrs = append(ptrs, n)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.loadTags(ctx, ptrs); err != nil {
		return nil, err
	}
	notes := make([]Note, 0, len(ptrs))
	for _, n := range ptrs {
		notes = append(notes, *n)
	}
	return notes, nil
}

// loadTags 一次查询补齐一批笔记的标签
func (s *SQLStore) loadTags(ctx context.Context, notes []*Note) error {
	if len(notes) == 0 {
		return nil
	}
	byID := make(map[int64]*Note, len(notes))
	ids := make([]int64, 0, len(notes))
	for _, n := range notes {
		byID[n.ID] = n
		ids = append(ids, n.ID)
	}

	query := `SELECT nt.note_id, t.id, t.user_id, t.name FROM note_tags nt
		JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id IN (` + placeholders(len(ids)) + `) ORDER BY t.name, t.id`
	rows, err := s.db.QueryContext(ctx, s.q(query), int64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			noteID int64
			t      Tag
		)
		if err := rows.Scan(&noteID, &t.ID, &t.UserID, &t.Name); err != nil {
			return err
		}
		if n, ok := byID[noteID]; ok {
			n.Tags = append(n.Tags, t)
		}
	}
	return rows.Err()
}

func (s *SQLStore) UpdateNote(ctx context.Context, userID, id int64, title string, content json.RawMessage) (*Note, error) {
	c, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}
	err = affected(s.db.ExecContext(ctx,
		s.q(`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		title, c, s.now(), id, userID))
	if err != nil {
		return nil, err
	}
	return s.GetNote(ctx, userID, id)
}

func (s *SQLStore) DeleteNote(ctx context.Context, userID, id int64) error {
	return affected(s.db.ExecContext(ctx, s.q(`DELETE FROM notes WHERE id = ? AND user_id = ?`), id, userID))
}

func (s *SQLStore) SetArchived(ctx context.Context, userID, id int64, archived bool) error {
	return affected(s.db.ExecContext(ctx,
		s.q(`UPDATE notes SET archived = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		archived, s.now(), id, userID))
}

func (s *SQLStore) MoveNote(ctx context.Context, userID, id int64, folderID *int64) error {
	if folderID != nil {
		if err := s.ownsFolder(ctx, userID, *folderID); err != nil {
			return err
		}
	}
	return affected(s.db.ExecContext(ctx,
		s.q(`UPDATE notes SET folder_id = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		folderID, s.now(), id, userID))
}

// SetStatus 仅周报可以提交或撤回
func (s *SQLStore) SetStatus(ctx context.Context, userID, id int64, status weekly.Status) (*Note, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalid, status)
	}
	n, err := s.GetNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.Type != NoteWeekly {
		return nil, fmt.Errorf("%w: only weekly notes have a status", ErrInvalid)
	}
	err = affected(s.db.ExecContext(ctx,
		s.q(`UPDATE notes SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		string(status), s.now(), id, userID))
	if err != nil {
		return nil, err
	}
	return s.GetNote(ctx, userID, id)
}
