package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "weeknote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustUser(t *testing.T, s *SQLStore, name string, role Role) *User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, "hash-"+name, role)
	require.NoError(t, err)
	return u
}

func weeklyNote(t *testing.T, s *SQLStore, userID int64, start, end, content string) *Note {
	t.Helper()
	n, err := s.CreateNote(context.Background(), NewNote{
		UserID:    userID,
		Title:     "周报 (" + start + " ~ " + end + ")",
		Content:   json.RawMessage(content),
		Type:      NoteWeekly,
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	return n
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b IN ($2,$3)", pg.q("SELECT 1 WHERE a = ? AND b IN ("+placeholders(2)+")"))

	lite := &SQLStore{dialect: DialectSQLite}
	assert.Equal(t, "a = ?", lite.q("a = ?"))
	assert.Equal(t, "", placeholders(0))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.Error(t, err)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := mustUser(t, s, "admin", RoleAdmin)
	mustUser(t, s, "bob", RoleMember)
	mustUser(t, s, "alice", RoleMember)

	_, err := s.CreateUser(ctx, "bob", "x", RoleMember)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.CreateUser(ctx, "carol", "x", Role("root"))
	assert.ErrorIs(t, err, ErrInvalid)

	got, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, RoleAdmin, got.Role)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	members, err := s.ListMemberUsernames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, members)

	n, err := s.CountUsersByRole(ctx, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteUser(ctx, admin.ID))
	assert.ErrorIs(t, s.DeleteUser(ctx, admin.ID), ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestNotes_CRUDAndOwnership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	bob := mustUser(t, s, "bob", RoleMember)
	eve := mustUser(t, s, "eve", RoleMember)

	n, err := s.CreateNote(ctx, NewNote{UserID: bob.ID, Title: "hello", Content: json.RawMessage(`"first draft"`)})
	require.NoError(t, err)
	assert.Equal(t, NoteNormal, n.Type)
	assert.Equal(t, weekly.StatusDraft, n.Status)
	assert.Equal(t, "bob", n.Author)
	assert.NotNil(t, n.Tags)

	_, err = s.GetNote(ctx, eve.ID, n.ID)
	assert.ErrorIs(t, err, ErrNotFound, "other users cannot see the note")

	updated, err := s.UpdateNote(ctx, bob.ID, n.ID, "hello v2", json.RawMessage(`"second draft"`))
	require.NoError(t, err)
	assert.Equal(t, "hello v2", updated.Title)
	assert.JSONEq(t, `"second draft"`, string(updated.Content))

	_, err = s.UpdateNote(ctx, bob.ID, n.ID, "x", json.RawMessage(`{broken`))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.UpdateNote(ctx, eve.ID, n.ID, "hijack", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetArchived(ctx, bob.ID, n.ID, true))
	active, err := s.ListNotes(ctx, NoteFilter{UserID: bob.ID, Folder: FolderScope{All: true}})
	require.NoError(t, err)
	assert.Empty(t, active)
	archived, err := s.ListNotes(ctx, NoteFilter{UserID: bob.ID, Archived: true, Folder: FolderScope{All: true}})
	require.NoError(t, err)
	assert.Len(t, archived, 1)

	assert.ErrorIs(t, s.DeleteNote(ctx, eve.ID, n.ID), ErrNotFound)
	require.NoError(t, s.DeleteNote(ctx, bob.ID, n.ID))
}

func TestNotes_FiltersAndFolders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	bob := mustUser(t, s, "bob", RoleMember)

	folder, err := s.CreateFolder(ctx, bob.ID, "  工作 ")
	require.NoError(t, err)
	assert.Equal(t, "工作", folder.Name)

	inbox, err := s.CreateNote(ctx, NewNote{UserID: bob.ID, Title: "Shopping list", Content: json.RawMessage(`"milk"`)})
	require.NoError(t, err)
	filed, err := s.CreateNote(ctx, NewNote{UserID: bob.ID, FolderID: &folder.ID, Title: "Design", Content: json.RawMessage(`"API draft"`)})
	require.NoError(t, err)

	list, err := s.ListNotes(ctx, NoteFilter{UserID: bob.ID, Folder: FolderScope{Inbox: true}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inbox.ID, list[0].ID)

	list, err = s.ListNotes(ctx, NoteFilter{UserID: bob.ID, Folder: FolderScope{ID: folder.ID}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, filed.ID, list[0].ID)

	list, err = s.ListNotes(ctx, NoteFilter{UserID: bob.ID, Search: "SHOPPING", Folder: FolderScope{All: true}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inbox.ID, list[0].ID)

	tag, attached, err := s.AttachTag(ctx, bob.ID, inbox.ID, "home")
	require.NoError(t, err)
	assert.True(t, attached)
	_, attached, err = s.AttachTag(ctx, bob.ID, inbox.ID, "home")
	require.NoError(t, err)
	assert.False(t, attached, "attaching twice is a no-op")

	list, err = s.ListNotes(ctx, NoteFilter{UserID: bob.ID, TagID: tag.ID, Folder: FolderScope{All: true}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Tags, 1)
	assert.Equal(t, "home", list[0].Tags[0].Name)

	require.NoError(t, s.MoveNote(ctx, bob.ID, inbox.ID, &folder.ID))
	require.NoError(t, s.DeleteFolder(ctx, bob.ID, folder.ID))
	list, err = s.ListNotes(ctx, NoteFilter{UserID: bob.ID, Folder: FolderScope{Inbox: true}})
	require.NoError(t, err)
	assert.Len(t, list, 2, "notes fall back to the inbox when their folder is deleted")

	missing := int64(4242)
	assert.ErrorIs(t, s.MoveNote(ctx, bob.ID, inbox.ID, &missing), ErrNotFound)
}

func TestTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	bob := mustUser(t, s, "bob", RoleMember)
	eve := mustUser(t, s, "eve", RoleMember)

	tag, err := s.CreateTag(ctx, bob.ID, "infra")
	require.NoError(t, err)
	_, err = s.CreateTag(ctx, bob.ID, "infra")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.CreateTag(ctx, eve.ID, "infra")
	assert.NoError(t, err, "tag names are unique per user only")

	other, err := s.CreateTag(ctx, bob.ID, "ops")
	require.NoError(t, err)
	assert.ErrorIs(t, s.RenameTag(ctx, bob.ID, other.ID, "infra"), ErrConflict)
	require.NoError(t, s.RenameTag(ctx, bob.ID, other.ID, "devops"))

	n, err := s.CreateNote(ctx, NewNote{UserID: bob.ID, Title: "t"})
	require.NoError(t, err)
	_, _, err = s.AttachTag(ctx, eve.ID, n.ID, "infra")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.AttachTag(ctx, bob.ID, n.ID, "infra")
	require.NoError(t, err)
	assert.ErrorIs(t, s.DetachTag(ctx, eve.ID, n.ID, tag.ID), ErrNotFound)
	require.NoError(t, s.DetachTag(ctx, bob.ID, n.ID, tag.ID))

	tags, err := s.ListTags(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"devops", "infra"}, []string{tags[0].Name, tags[1].Name})

	require.NoError(t, s.DeleteTag(ctx, bob.ID, tag.ID))
	assert.ErrorIs(t, s.DeleteTag(ctx, bob.ID, tag.ID), ErrNotFound)
}

func TestReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	bob := mustUser(t, s, "bob", RoleMember)
	alice := mustUser(t, s, "alice", RoleMember)

	content := `{"keyFocus":[{"text":"ship","completed":false,"notes":"","tags":["x"]}],"regularWork":[]}`
	r1 := weeklyNote(t, s, bob.ID, "2024-06-03", "2024-06-09", content)
	r2 := weeklyNote(t, s, alice.ID, "2024-06-03", "2024-06-09", content)
	draft := weeklyNote(t, s, alice.ID, "2024-06-10", "2024-06-16", content)
	old := weeklyNote(t, s, bob.ID, "2024-05-27", "2024-06-02", content)
	normal, err := s.CreateNote(ctx, NewNote{UserID: bob.ID, Title: "plain"})
	require.NoError(t, err)

	for _, n := range []*Note{r1, r2, old} {
		got, err := s.SetStatus(ctx, n.UserID, n.ID, weekly.StatusSubmitted)
		require.NoError(t, err)
		assert.Equal(t, weekly.StatusSubmitted, got.Status)
	}
	_, err = s.SetStatus(ctx, bob.ID, normal.ID, weekly.StatusSubmitted)
	assert.ErrorIs(t, err, ErrInvalid, "normal notes cannot be submitted")
	_, err = s.SetStatus(ctx, bob.ID, r1.ID, weekly.Status("approved"))
	assert.ErrorIs(t, err, ErrInvalid)

	recs, err := s.ListSubmittedWeekly(ctx, []int64{r2.ID, r1.ID, draft.ID, normal.ID, 9999})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, r1.ID, recs[0].ID)
	assert.Equal(t, "bob", recs[0].Author)
	assert.JSONEq(t, content, string(recs[0].Content))

	recs, err = s.ListSubmittedWeekly(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = s.ListSubmittedWeeklyBetween(ctx, "2024-06-03", "2024-06-09")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = s.ListSubmittedWeeklyBetween(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	_, err = s.SetStatus(ctx, bob.ID, r1.ID, weekly.StatusDraft)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalNotes:       5,
		NormalNotes:      1,
		WeeklyNotes:      4,
		ArchivedNotes:    0,
		SubmittedReports: 2,
		Users:            2,
	}, *st)

	all, err := s.ListAllNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
