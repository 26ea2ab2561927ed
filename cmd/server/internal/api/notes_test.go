package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "alice-pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.NotEmpty(t, gjson.Get(body, "token").String())
	assert.Equal(t, "alice", gjson.Get(body, "user.username").String())
	assert.Equal(t, "member", gjson.Get(body, "user.role").String())
	assert.False(t, gjson.Get(body, "user.password_hash").Exists())
	assert.True(t, env.audit.has(audit.ActionLogin))

	w = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 登录拿到的 token 可以直接访问受保护接口
	env.tokens["fresh"] = gjson.Get(body, "token").String()
	w = env.do(http.MethodGet, "/api/auth/me", "fresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", gjson.Get(w.Body.String(), "data.username").String())
}

func TestAuthGuards(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/admin/stats", "alice", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/admin/stats", "admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/unknown", "admin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateWeeklyNote_DefaultsToCurrentWeek(t *testing.T) {
	env := newTestEnv(t)
	nowFunc = func() time.Time { return time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })

	w := env.do(http.MethodPost, "/api/notes", "alice", map[string]string{"type": "weekly"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	n := decode[store.Note](t, w)
	assert.Equal(t, store.NoteWeekly, n.Type)
	assert.Equal(t, weekly.StatusDraft, n.Status)
	assert.Equal(t, "2024-06-10", n.StartDate)
	assert.Equal(t, "2024-06-16", n.EndDate)
	assert.Equal(t, "周报 2024-06-10 ~ 2024-06-16", n.Title)

	content := string(n.Content)
	assert.True(t, gjson.Get(content, "keyFocus").IsArray())
	assert.True(t, gjson.Get(content, "regularWork").IsArray())
	assert.Equal(t, "2024-06-10", gjson.Get(content, "startDate").String())

	w = env.do(http.MethodPost, "/api/notes", "alice", map[string]string{"type": "weekly", "startDate": "2024-06-09", "endDate": "2024-06-03"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/notes", "alice", map[string]string{"type": "diary"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/notes", "alice", map[string]string{"title": "随手记"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	n := decode[store.Note](t, w)
	id := itoa(n.ID)

	// 其他用户看不到
	w = env.do(http.MethodGet, "/api/notes/"+id, "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/api/notes/"+id, "alice", map[string]interface{}{"title": "改过的标题", "content": map[string]string{"body": "x"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "改过的标题", decode[store.Note](t, w).Title)

	// 文件夹与移动
	w = env.do(http.MethodPost, "/api/folders", "alice", map[string]string{"name": "工作"})
	require.Equal(t, http.StatusCreated, w.Code)
	folder := decode[store.Folder](t, w)
	w = env.do(http.MethodPut, "/api/notes/"+id+"/move", "alice", map[string]int64{"folderId": folder.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/notes?folderId=inbox", "alice", nil)
	assert.Empty(t, decode[[]store.Note](t, w))
	w = env.do(http.MethodGet, "/api/notes?folderId="+itoa(folder.ID), "alice", nil)
	assert.Len(t, decode[[]store.Note](t, w), 1)
	w = env.do(http.MethodGet, "/api/notes?folderId=abc", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 标签：新关联 201，重复关联 200
	w = env.do(http.MethodPost, "/api/notes/"+id+"/tags", "alice", map[string]string{"tagName": "backend"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	tag := decode[store.Tag](t, w)
	w = env.do(http.MethodPost, "/api/notes/"+id+"/tags", "alice", map[string]string{"tagName": "backend"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/notes?tagId="+itoa(tag.ID), "alice", nil)
	assert.Len(t, decode[[]store.Note](t, w), 1)
	w = env.do(http.MethodDelete, "/api/notes/"+id+"/tags/"+itoa(tag.ID), "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 归档
	w = env.do(http.MethodPost, "/api/notes/"+id+"/archive", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/notes", "alice", nil)
	assert.Empty(t, decode[[]store.Note](t, w))
	w = env.do(http.MethodGet, "/api/notes?status=archived", "alice", nil)
	assert.Len(t, decode[[]store.Note](t, w), 1)
	w = env.do(http.MethodGet, "/api/notes?status=deleted", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 普通笔记不能提交
	w = env.do(http.MethodPost, "/api/notes/"+id+"/submit", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, "/api/notes/"+id, "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodDelete, "/api/notes/"+id, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAndWithdraw(t *testing.T) {
	env := newTestEnv(t)
	id := env.submitWeekly("alice", `{"keyFocus":[{"text":"上线","tags":[]}],"regularWork":[]}`)
	assert.True(t, env.audit.has(audit.ActionSubmitReport))

	w := env.do(http.MethodGet, "/api/admin/stats", "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[store.Stats](t, w).SubmittedReports)

	w = env.do(http.MethodPost, "/api/notes/"+itoa(id)+"/withdraw", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, weekly.StatusDraft, decode[store.Note](t, w).Status)
	assert.True(t, env.audit.has(audit.ActionWithdrawReport))

	// 撤回会使统计缓存失效
	w = env.do(http.MethodGet, "/api/admin/stats", "admin", nil)
	assert.Equal(t, 0, decode[store.Stats](t, w).SubmittedReports)

	w = env.do(http.MethodPost, "/api/notes/"+itoa(id)+"/submit", "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagsAndFolders(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/tags", "alice", map[string]string{"name": "frontend"})
	require.Equal(t, http.StatusCreated, w.Code)
	tag := decode[store.Tag](t, w)

	w = env.do(http.MethodPost, "/api/tags", "alice", map[string]string{"name": "frontend"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(http.MethodPost, "/api/tags", "bob", map[string]string{"name": "frontend"})
	assert.Equal(t, http.StatusCreated, w.Code, "tag names are scoped per user")
	w = env.do(http.MethodPost, "/api/tags", "alice", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/tags/"+itoa(tag.ID), "alice", map[string]string{"name": "web"})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/tags", "alice", nil)
	tags := decode[[]store.Tag](t, w)
	require.Len(t, tags, 1)
	assert.Equal(t, "web", tags[0].Name)

	w = env.do(http.MethodDelete, "/api/tags/"+itoa(tag.ID), "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(http.MethodDelete, "/api/tags/"+itoa(tag.ID), "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/folders", "alice", map[string]string{"name": "项目"})
	require.Equal(t, http.StatusCreated, w.Code)
	folder := decode[store.Folder](t, w)
	w = env.do(http.MethodPut, "/api/folders/"+itoa(folder.ID), "alice", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPut, "/api/folders/"+itoa(folder.ID), "alice", map[string]string{"name": "归档项目"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/folders", "alice", nil)
	assert.Len(t, decode[[]store.Folder](t, w), 1)
	w = env.do(http.MethodDelete, "/api/folders/"+itoa(folder.ID), "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(http.MethodGet, "/api/folders/x", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
