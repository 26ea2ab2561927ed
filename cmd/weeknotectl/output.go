package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// printOutput 按指定格式输出响应数据
func printOutput(w io.Writer, format string, data []byte) error {
	if format == "json" {
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			// 非 JSON 数据直接输出
			fmt.Fprintln(w, string(data))
			return nil
		}
		fmt.Fprintln(w, out.String())
		return nil
	}
	// text 模式：直接输出
	fmt.Fprintln(w, string(data))
	return nil
}

// decodeData 取出 {"success": true, "data": ...} 中的 data
func decodeData(raw []byte, v interface{}) error {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return json.Unmarshal(resp.Data, v)
}
