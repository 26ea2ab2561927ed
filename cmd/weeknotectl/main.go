package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weeknotectl",
		Short:         "weeknote 命令行工具",
		Long:          "通过命令行调用 weeknote 后端 HTTP API：登录、查看与汇总周报、导出周报文档、查看统计。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// 添加全局标志
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newReportsCmd())
	rootCmd.AddCommand(newStatsCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
