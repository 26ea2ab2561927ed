package store

import (
	"context"
	"encoding/json"

	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
)

const reportSelect = `SELECT n.id, n.title, u.username, n.status, n.content, n.start_date, n.end_date, n.updated_at
	FROM notes n JOIN users u ON u.id = n.user_id`

func (s *SQLStore) ListSubmittedWeekly(ctx context.Context, ids []int64) ([]ReportRecord, error) {
	if len(ids) == 0 {
		return []ReportRecord{}, nil
	}
	args := append([]any{string(NoteWeekly), string(weekly.StatusSubmitted)}, int64Args(ids)...)
	query := reportSelect + ` WHERE n.type = ? AND n.status = ? AND n.id IN (` + placeholders(len(ids)) + `) ORDER BY n.id`
	return s.queryReports(ctx, s.q(query), args...)
}

// ListSubmittedWeeklyBetween 日期列固定为 YYYY-MM-DD，字符串比较即日期比较
func (s *SQLStore) ListSubmittedWeeklyBetween(ctx context.Context, start, end string) ([]ReportRecord, error) {
	query := reportSelect + ` WHERE n.type = ? AND n.status = ?`
	args := []any{string(NoteWeekly), string(weekly.StatusSubmitted)}
	if end != "" {
		query += ` AND (n.start_date = '' OR n.start_date <= ?)`
		args = append(args, end)
	}
	if start != "" {
		query += ` AND (n.end_date = '' OR n.end_date >= ?)`
		args = append(args, start)
	}
	query += ` ORDER BY n.start_date DESC, u.username, n.id`
	return s.queryReports(ctx, s.q(query), args...)
}

func (s *SQLStore) queryReports(ctx context.Context, query string, args ...any) ([]ReportRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReportRecord, 0)
	for rows.Next() {
		var (
			r       ReportRecord
			content string
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Author, &r.Status, &content, &r.StartDate, &r.EndDate, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Content = json.RawMessage(content)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAllNotes 管理端查看全部用户的笔记
func (s *SQLStore) ListAllNotes(ctx context.Context) ([]Note, error) {
	return s.queryNotes(ctx, `SELECT `+noteColumns+noteFrom+` ORDER BY n.updated_at DESC, n.id DESC`)
}

func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, s.q(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN archived THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN type = ? AND status = ? THEN 1 ELSE 0 END), 0)
		FROM notes`),
		string(NoteNormal), string(NoteWeekly), string(NoteWeekly), string(weekly.StatusSubmitted),
	).Scan(&st.TotalNotes, &st.NormalNotes, &st.WeeklyNotes, &st.ArchivedNotes, &st.SubmittedReports)
	if err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.Users); err != nil {
		return nil, err
	}
	return &st, nil
}
