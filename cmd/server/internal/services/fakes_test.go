package services

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
)

// fakeReports 以内存数据模拟 ListSubmittedWeekly 的过滤语义
type fakeReports struct {
	all   []store.ReportRecord
	err   error
	calls atomic.Int32
}

func (f *fakeReports) ListSubmittedWeekly(ctx context.Context, ids []int64) ([]store.ReportRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []store.ReportRecord
	for _, r := range f.all {
		if want[r.ID] && r.Status == weekly.StatusSubmitted {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeMembers struct {
	names []string
	err   error
}

func (f *fakeMembers) ListMemberUsernames(ctx context.Context) ([]string, error) {
	return f.names, f.err
}

type fakeStats struct {
	stats store.Stats
	calls atomic.Int32
}

func (f *fakeStats) Stats(ctx context.Context) (*store.Stats, error) {
	f.calls.Add(1)
	s := f.stats
	return &s, nil
}

func record(id int64, author string, status weekly.Status, content string) store.ReportRecord {
	return store.ReportRecord{ID: id, Author: author, Status: status, Content: json.RawMessage(content)}
}
