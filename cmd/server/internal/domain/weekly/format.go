package weekly

import (
	"fmt"
	"strings"

	"github.com/houzhh15/weeknote/cmd/server/internal/simhash"
)

// Mode 汇总结果的输出形态
type Mode string

const (
	// ModeStructured 保留 {text, tags, submitters}，用于页面按标签徽章展示
	ModeStructured Mode = "structured"
	// ModeFlattened 每项渲染为一行文本，用于纯文本/文档导出
	ModeFlattened Mode = "flattened"
)

// ParseMode 解析调用方传入的模式，空字符串默认为 structured
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStructured:
		return ModeStructured, nil
	case ModeFlattened:
		return ModeFlattened, nil
	}
	return "", fmt.Errorf("unknown aggregation mode: %q", s)
}

// StructuredItem 结构化模式下的单个工作项
// SimilarTo 列出同一分区内文本相近的其他项下标，仅作提示，不影响去重
type StructuredItem struct {
	AggregatedItem
	SimilarTo []int `json:"similarTo,omitempty"`
}

// StructuredResult 结构化模式的输出
type StructuredResult struct {
	KeyFocus    []StructuredItem `json:"keyFocus"`
	RegularWork []StructuredItem `json:"regularWork"`
}

// FlattenedResult 扁平模式的输出
type FlattenedResult struct {
	KeyFocus    []string `json:"keyFocus"`
	RegularWork []string `json:"regularWork"`
}

// Format 按模式整形汇总结果，返回 StructuredResult 或 FlattenedResult
func Format(a Aggregation, m Mode) any {
	if m == ModeFlattened {
		return Flattened(a)
	}
	return Structured(a)
}

// Structured 生成结构化结果并附带相似项提示
func Structured(a Aggregation) StructuredResult {
	return StructuredResult{
		KeyFocus:    structuredSection(a.KeyFocus),
		RegularWork: structuredSection(a.RegularWork),
	}
}

func structuredSection(items []AggregatedItem) []StructuredItem {
	out := make([]StructuredItem, len(items))
	texts := make([]string, len(items))
	for i, it := range items {
		out[i] = StructuredItem{AggregatedItem: it}
		texts[i] = it.Text
	}
	for _, p := range simhash.SimilarPairs(texts) {
		out[p[0]].SimilarTo = append(out[p[0]].SimilarTo, p[1])
		out[p[1]].SimilarTo = append(out[p[1]].SimilarTo, p[0])
	}
	return out
}

// Flattened 生成扁平结果
func Flattened(a Aggregation) FlattenedResult {
	return FlattenedResult{
		KeyFocus:    flattenSection(a.KeyFocus),
		RegularWork: flattenSection(a.RegularWork),
	}
}

func flattenSection(items []AggregatedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, FlattenLine(it))
	}
	return out
}

// FlattenLine 渲染为 "[tag1, tag2] text (提交人: a, b)"，无标签时省略方括号部分
func FlattenLine(it AggregatedItem) string {
	var b strings.Builder
	if len(it.Tags) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(it.Tags, ", "))
		b.WriteString("] ")
	}
	b.WriteString(it.Text)
	b.WriteString(" (提交人: ")
	b.WriteString(strings.Join(it.Submitters, ", "))
	b.WriteByte(')')
	return b.String()
}
