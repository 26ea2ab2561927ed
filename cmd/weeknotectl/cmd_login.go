package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "登录并把 token 保存到 ~/.weeknote/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(cmd)
			username := mustGetString(cmd, "username")
			password := mustGetString(cmd, "password")
			if password == "" {
				password = os.Getenv("WEEKNOTE_PASSWORD")
			}
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password (or WEEKNOTE_PASSWORD) are required")
			}

			client := NewAPIClient(cfg)
			resp, err := client.Request(cmd.Context(), http.MethodPost, "/api/auth/login", map[string]string{
				"username": username,
				"password": password,
			})
			if err != nil {
				return err
			}
			var login struct {
				Token string `json:"token"`
				User  struct {
					Username string `json:"username"`
					Role     string `json:"role"`
				} `json:"user"`
			}
			if err := json.Unmarshal(resp, &login); err != nil {
				return fmt.Errorf("parse login response: %w", err)
			}
			if login.Token == "" {
				return fmt.Errorf("server returned no token")
			}

			cfg.Token = login.Token
			path, err := saveConfigFile(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已登录: %s (%s)，token 保存在 %s\n", login.User.Username, login.User.Role, path)
			return nil
		},
	}
	c.Flags().StringP("username", "u", "", "用户名")
	c.Flags().String("password", "", "密码 (env: WEEKNOTE_PASSWORD)")
	return c
}

// mustGetString 获取字符串标志
func mustGetString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}
