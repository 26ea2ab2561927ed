package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type statsView struct {
	TotalNotes       int `json:"totalNotes"`
	NormalNotes      int `json:"normalNotes"`
	WeeklyNotes      int `json:"weeklyNotes"`
	ArchivedNotes    int `json:"archivedNotes"`
	SubmittedReports int `json:"submittedReports"`
	Users            int `json:"users"`
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "查看笔记与周报统计（需要管理员）",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			resp, err := NewAPIClient(cfg).Get(cmd.Context(), "/api/admin/stats", nil)
			if err != nil {
				return err
			}
			if cfg.Output == "json" {
				return printOutput(cmd.OutOrStdout(), cfg.Output, resp)
			}
			var st statsView
			if err := decodeData(resp, &st); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "用户数:     %d\n", st.Users)
			fmt.Fprintf(out, "笔记总数:   %d (普通 %d, 周报 %d, 已归档 %d)\n", st.TotalNotes, st.NormalNotes, st.WeeklyNotes, st.ArchivedNotes)
			fmt.Fprintf(out, "已提交周报: %d\n", st.SubmittedReports)
			return nil
		},
	}
}
