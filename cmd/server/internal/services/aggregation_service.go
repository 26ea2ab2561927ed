package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/weeknote/cmd/server/internal/domain/weekly"
	"github.com/houzhh15/weeknote/cmd/server/internal/reportdoc"
	"github.com/houzhh15/weeknote/cmd/server/internal/store"
	"github.com/houzhh15/weeknote/cmd/server/internal/util"
	"github.com/houzhh15/weeknote/pkg/logger"
	"github.com/houzhh15/weeknote/pkg/metrics"
)

var (
	// ErrEmptySelection 调用方没有选择任何周报
	ErrEmptySelection = errors.New("select at least one report")
	// ErrNoSubmittedReports 所选 id 中没有任何已提交的周报
	ErrNoSubmittedReports = errors.New("no submitted weekly reports match the selection")
)

const (
	opAggregate = "aggregate"
	opExport    = "export"
)

// ReportSource 按 id 读取已提交的周报
type ReportSource interface {
	ListSubmittedWeekly(ctx context.Context, ids []int64) ([]store.ReportRecord, error)
}

// MemberSource 读取应提交周报的成员
type MemberSource interface {
	ListMemberUsernames(ctx context.Context) ([]string, error)
}

// AggregationResult 汇总结果；Data 为 weekly.StructuredResult 或 weekly.FlattenedResult
type AggregationResult struct {
	Mode        weekly.Mode `json:"mode"`
	ReportCount int         `json:"reportCount"`
	Data        any         `json:"-"`
	Unsubmitted []string    `json:"unsubmitted"`
}

// ExportedReport 导出的周报文档
type ExportedReport struct {
	FileName    string
	ContentType string
	Body        []byte
	ReportCount int
	Unsubmitted []string
}

// AggregationOptions 服务可选参数
type AggregationOptions struct {
	FetchTimeout time.Duration
	ArchiveDir   string // 非空时导出文档另存一份
	Logger       *slog.Logger
}

// AggregationService 周报汇总与导出
type AggregationService struct {
	reports    ReportSource
	members    MemberSource
	renderer   *reportdoc.Renderer
	timeout    time.Duration
	archiveDir string
	log        *slog.Logger
	now        func() time.Time
}

// NewAggregationService 创建汇总服务
func NewAggregationService(reports ReportSource, members MemberSource, renderer *reportdoc.Renderer, opts AggregationOptions) *AggregationService {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.L()
	}
	if renderer == nil {
		renderer = reportdoc.NewRenderer()
	}
	return &AggregationService{
		reports:    reports,
		members:    members,
		renderer:   renderer,
		timeout:    opts.FetchTimeout,
		archiveDir: opts.ArchiveDir,
		log:        opts.Logger.With("component", "aggregation-service"),
		now:        time.Now,
	}
}

// fetched 一次汇总所需的全部输入
type fetched struct {
	records []store.ReportRecord
	members []string
}

// AggregateSelected 汇总所选周报，按 mode 整形输出
func (s *AggregationService) AggregateSelected(ctx context.Context, ids []int64, mode weekly.Mode) (*AggregationResult, error) {
	start := time.Now()
	res, err := s.aggregate(ctx, ids, mode)
	s.observe(ctx, opAggregate, mode, start, res, err)
	return res, err
}

func (s *AggregationService) aggregate(ctx context.Context, ids []int64, mode weekly.Mode) (*AggregationResult, error) {
	in, err := s.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	agg, reports := s.run(in.records)
	return &AggregationResult{
		Mode:        mode,
		ReportCount: len(reports),
		Data:        weekly.Format(agg, mode),
		Unsubmitted: weekly.Unsubmitted(in.members, weekly.SubmittedBy(reports)),
	}, nil
}

// BuildReport 以扁平模式汇总，附上未提交名单后渲染为文档
// label 为空时取所选周报覆盖的日期区间
func (s *AggregationService) BuildReport(ctx context.Context, ids []int64, label string) (*ExportedReport, error) {
	start := time.Now()
	out, err := s.buildReport(ctx, ids, label)
	var res *AggregationResult
	if out != nil {
		res = &AggregationResult{ReportCount: out.ReportCount}
	}
	s.observe(ctx, opExport, weekly.ModeFlattened, start, res, err)
	return out, err
}

func (s *AggregationService) buildReport(ctx context.Context, ids []int64, label string) (*ExportedReport, error) {
	in, err := s.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	agg, reports := s.run(in.records)
	flat := weekly.Flattened(agg)
	unsubmitted := weekly.Unsubmitted(in.members, weekly.SubmittedBy(reports))

	if label == "" {
		label = rangeLabel(in.records, s.now())
	}
	body, err := s.renderer.Render(reportdoc.Document{
		Label:       label,
		GeneratedAt: s.now(),
		ReportCount: len(reports),
		KeyFocus:    flat.KeyFocus,
		RegularWork: flat.RegularWork,
		Unsubmitted: unsubmitted,
	})
	if err != nil {
		return nil, err
	}

	out := &ExportedReport{
		FileName:    reportdoc.FileName(label),
		ContentType: reportdoc.ContentType,
		Body:        body,
		ReportCount: len(reports),
		Unsubmitted: unsubmitted,
	}
	if s.archiveDir != "" {
		s.archive(ctx, out)
	}
	return out, nil
}

// fetch 并发读取周报与成员列表，二者都完成后才返回
func (s *AggregationService) fetch(ctx context.Context, ids []int64) (*fetched, error) {
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}
	// 非正数 id 不可能存在，与未知 id 一样静默丢弃
	ids = dedupIDs(ids)
	if len(ids) == 0 {
		return nil, ErrNoSubmittedReports
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var in fetched
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.reports.ListSubmittedWeekly(gctx, ids)
		if err != nil {
			return fmt.Errorf("fetch reports: %w", err)
		}
		in.records = recs
		return nil
	})
	g.Go(func() error {
		members, err := s.members.ListMemberUsernames(gctx)
		if err != nil {
			return fmt.Errorf("fetch members: %w", err)
		}
		in.members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	in.records = orderByIDs(in.records, ids)
	if len(in.records) == 0 {
		return nil, ErrNoSubmittedReports
	}
	return &in, nil
}

// run 解析内容并汇总；无法解析的内容按空周报处理并记录告警
func (s *AggregationService) run(records []store.ReportRecord) (weekly.Aggregation, []weekly.Report) {
	reports := make([]weekly.Report, 0, len(records))
	for _, rec := range records {
		content, err := weekly.ParseContent(rec.Content)
		if err != nil {
			metrics.RecordMalformedContent()
			s.log.Warn("malformed weekly report content, treated as empty",
				"note_id", rec.ID,
				"author", rec.Author,
				"error", err,
			)
		}
		reports = append(reports, weekly.Report{
			ID:      rec.ID,
			Author:  rec.Author,
			Status:  rec.Status,
			Content: content,
		})
	}
	return weekly.Aggregate(reports), reports
}

func (s *AggregationService) archive(ctx context.Context, out *ExportedReport) {
	stamp := s.now().Format("20060102-150405")
	path := filepath.Join(s.archiveDir, stamp+"_"+out.FileName)
	if err := os.MkdirAll(s.archiveDir, 0755); err != nil {
		s.log.WarnContext(ctx, "failed to create report archive dir", "dir", s.archiveDir, "error", err)
		return
	}
	if err := os.WriteFile(path, out.Body, 0644); err != nil {
		s.log.WarnContext(ctx, "failed to archive exported report", "path", path, "error", err)
	}
}

func (s *AggregationService) observe(ctx context.Context, op string, mode weekly.Mode, start time.Time, res *AggregationResult, err error) {
	elapsed := time.Since(start)
	metrics.RecordReportDuration(op, elapsed.Seconds())

	status, code := "success", ""
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptySelection):
		status, code = "empty_selection", "EMPTY_SELECTION"
	case errors.Is(err, ErrNoSubmittedReports):
		status, code = "no_submitted", "NO_SUBMITTED_REPORTS"
	default:
		status, code = "failed", "STORE_UNAVAILABLE"
	}
	metrics.RecordReportOperation(op, string(mode), status)

	count := 0
	if res != nil {
		count = res.ReportCount
	}
	action := "success"
	switch {
	case code == "STORE_UNAVAILABLE":
		action = "error"
	case err != nil:
		action = "rejected"
	}
	logger.LogReportProcessing(ctx, s.log, op, action, count, elapsed.Milliseconds(), code)
}

// dedupIDs 去掉重复与非正数 id，保持首次出现顺序
func dedupIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// orderByIDs 让汇总的首次出现顺序跟随调用方的选择顺序
func orderByIDs(recs []store.ReportRecord, ids []int64) []store.ReportRecord {
	byID := make(map[int64]store.ReportRecord, len(recs))
	for _, r := range recs {
		byID[r.ID] = r
	}
	out := make([]store.ReportRecord, 0, len(recs))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// rangeLabel 取所选周报的最早开始与最晚结束日期；都没有日期时使用当前周
func rangeLabel(recs []store.ReportRecord, now time.Time) string {
	var first, last string
	for _, r := range recs {
		if r.StartDate != "" && (first == "" || r.StartDate < first) {
			first = r.StartDate
		}
		if r.EndDate != "" && r.EndDate > last {
			last = r.EndDate
		}
	}
	if first == "" || last == "" {
		return util.WeekOf(now).String()
	}
	return first + " ~ " + last
}
