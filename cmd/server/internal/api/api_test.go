package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/weeknote/cmd/server/internal/audit"
	"github.com/houzhh15/weeknote/cmd/server/internal/services"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/users"
)

// recordingAudit 记录审计动作，便于断言
type recordingAudit struct {
	mu      sync.Mutex
	actions []audit.AuditAction
}

func (r *recordingAudit) LogAction(_ string, action audit.AuditAction, _ string, _, _ interface{}, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingAudit) LogActionSimple(_ string, action audit.AuditAction, _ string, _ string) error {
	return r.LogAction("", action, "", nil, nil, "")
}

func (r *recordingAudit) has(action audit.AuditAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actions {
		if a == action {
			return true
		}
	}
	return false
}

type testEnv struct {
	t      *testing.T
	store  *store.SQLStore
	users  *users.Manager
	audit  *recordingAudit
	router *gin.Engine
	tokens map[string]string
	ids    map[string]int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	um, err := users.NewManager(s, []byte("test-secret"), time.Hour)
	require.NoError(t, err)

	env := &testEnv{
		t:      t,
		store:  s,
		users:  um,
		audit:  &recordingAudit{},
		tokens: map[string]string{},
		ids:    map[string]int64{},
	}
	for _, u := range []struct {
		name string
		role store.Role
	}{{"admin", store.RoleAdmin}, {"alice", store.RoleMember}, {"bob", store.RoleMember}, {"carol", store.RoleMember}} {
		created, err := um.CreateUser(context.Background(), u.name, u.name+"-pw", u.role)
		require.NoError(t, err)
		tok, _, err := um.GenerateToken(created)
		require.NoError(t, err)
		env.tokens[u.name] = tok
		env.ids[u.name] = created.ID
	}

	env.router = NewRouter(Deps{
		Store:       s,
		Users:       um,
		Aggregation: services.NewAggregationService(s, s, nil, services.AggregationOptions{}),
		Statistics:  services.NewStatisticsService(s, time.Minute),
		Audit:       env.audit,
	})
	return env
}

func (e *testEnv) do(method, path, user string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[user])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode 解析 {"success": true, "data": ...} 中的 data
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Data
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	msg, _ := resp["error"].(string)
	return msg
}

// submitWeekly 以 user 身份新建并提交一份周报，返回 id
func (e *testEnv) submitWeekly(user string, content string) int64 {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/notes", user, map[string]interface{}{
		"type":      "weekly",
		"content":   json.RawMessage(content),
		"startDate": "2024-06-03",
		"endDate":   "2024-06-09",
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	n := decode[store.Note](e.t, w)

	w = e.do(http.MethodPost, "/api/notes/"+itoa(n.ID)+"/submit", user, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	return n.ID
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
