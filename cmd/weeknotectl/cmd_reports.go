package main

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "已提交周报的查询、汇总与导出（需要管理员）",
	}
	cmd.AddCommand(newReportsListCmd())
	cmd.AddCommand(newReportsAggregateCmd())
	cmd.AddCommand(newReportsExportCmd())
	return cmd
}

type reportRow struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Status    string `json:"status"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func newReportsListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出与日期区间有交集的已提交周报",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			query := map[string]string{}
			if v := mustGetString(cmd, "start"); v != "" {
				query["startDate"] = v
			}
			if v := mustGetString(cmd, "end"); v != "" {
				query["endDate"] = v
			}
			resp, err := NewAPIClient(cfg).Get(cmd.Context(), "/api/admin/weekly-reports", query)
			if err != nil {
				return err
			}
			if cfg.Output == "json" {
				return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
			}
			var rows []reportRow
			if err := decodeData(resp, &rows); err != nil {
				return err
			}
			return printReportTable(cmd.OutOrStdout(), rows)
		},
	}
	c.Flags().String("start", "", "开始日期 YYYY-MM-DD")
	c.Flags().String("end", "", "结束日期 YYYY-MM-DD")
	return c
}

func printReportTable(w io.Writer, rows []reportRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "没有已提交的周报")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t提交人\t周期\t标题")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s ~ %s\t%s\n", r.ID, r.Author, r.StartDate, r.EndDate, r.Title)
	}
	return tw.Flush()
}

// aggregateView 汇总接口的 data；两种模式下 keyFocus/regularWork 的元素类型不同
type aggregateView struct {
	Mode        string         `json:"mode"`
	ReportCount int            `json:"reportCount"`
	KeyFocus    []aggregateRow `json:"keyFocus"`
	RegularWork []aggregateRow `json:"regularWork"`
	Unsubmitted []string       `json:"unsubmitted"`
}

// aggregateRow 兼容字符串行（flattened）与对象（structured）
type aggregateRow struct {
	Line       string   `json:"-"`
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
	Submitters []string `json:"submitters"`
}

func (r *aggregateRow) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &r.Line)
	}
	type plain aggregateRow
	return json.Unmarshal(b, (*plain)(r))
}

// String 与服务端扁平模式一致的单行表示
func (r aggregateRow) String() string {
	if r.Line != "" {
		return r.Line
	}
	var b strings.Builder
	if len(r.Tags) > 0 {
		b.WriteString("[" + strings.Join(r.Tags, ", ") + "] ")
	}
	b.WriteString(r.Text)
	b.WriteString(" (提交人: " + strings.Join(r.Submitters, ", ") + ")")
	return b.String()
}

func newReportsAggregateCmd() *cobra.Command {
	var ids []int64
	c := &cobra.Command{
		Use:   "aggregate",
		Short: "汇总所选周报，并列出未提交的成员",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}
			cfg := LoadConfig(cmd)
			resp, err := NewAPIClient(cfg).Request(cmd.Context(), http.MethodPost, "/api/admin/weekly-reports/aggregate", map[string]interface{}{
				"reportIds": ids,
				"mode":      mustGetString(cmd, "mode"),
			})
			if err != nil {
				return err
			}
			if cfg.Output == "json" {
				return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
			}
			var view aggregateView
			if err := decodeData(resp, &view); err != nil {
				return err
			}
			printAggregate(cmd.OutOrStdout(), view)
			return nil
		},
	}
	c.Flags().Int64SliceVar(&ids, "ids", nil, "周报 id 列表，逗号分隔")
	c.Flags().String("mode", "structured", "输出模式: structured / flattened")
	return c
}

func printAggregate(w io.Writer, v aggregateView) {
	fmt.Fprintf(w, "共汇总 %d 份周报\n", v.ReportCount)
	section := func(title string, rows []aggregateRow) {
		fmt.Fprintf(w, "\n%s\n", title)
		if len(rows) == 0 {
			fmt.Fprintln(w, "  - 无")
			return
		}
		for _, r := range rows {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}
	section("重点工作", v.KeyFocus)
	section("常规工作", v.RegularWork)
	if len(v.Unsubmitted) == 0 {
		fmt.Fprintln(w, "\n未提交: 全部已提交")
		return
	}
	fmt.Fprintf(w, "\n未提交: %s\n", strings.Join(v.Unsubmitted, "、"))
}

func newReportsExportCmd() *cobra.Command {
	var ids []int64
	c := &cobra.Command{
		Use:   "export",
		Short: "导出所选周报的 Markdown 汇总文档",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids is required")
			}
			cfg := LoadConfig(cmd)
			resp, err := NewAPIClient(cfg).Raw(cmd.Context(), http.MethodPost, "/api/admin/weekly-reports/export", map[string]interface{}{
				"reportIds": ids,
				"dateRange": mustGetString(cmd, "label"),
			})
			if err != nil {
				return err
			}

			path := mustGetString(cmd, "file")
			if path == "-" {
				_, err := cmd.OutOrStdout().Write(resp.Body())
				return err
			}
			if path == "" {
				path = attachmentName(resp.Header().Get("Content-Disposition"))
			}
			if err := os.WriteFile(path, resp.Body(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出 %s 份周报到 %s\n", resp.Header().Get("X-Report-Count"), path)
			return nil
		},
	}
	c.Flags().Int64SliceVar(&ids, "ids", nil, "周报 id 列表，逗号分隔")
	c.Flags().String("label", "", "文档标题中的周期，默认取所选周报的日期区间")
	c.Flags().StringP("file", "f", "", "输出文件，默认使用服务端给出的文件名；- 表示标准输出")
	return c
}

// attachmentName 解析 Content-Disposition 中的文件名，失败时使用默认名
func attachmentName(header string) string {
	_, params, err := mime.ParseMediaType(header)
	if err == nil && params["filename"] != "" {
		return filepath.Base(params["filename"])
	}
	return "weekly-report.md"
}
