// Package reportdoc 把汇总后的周报渲染为可下载的 Markdown 文档。
package reportdoc

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Document 渲染所需的全部数据，各列表均为扁平化后的展示行
type Document struct {
	Label       string
	GeneratedAt time.Time
	ReportCount int
	KeyFocus    []string
	RegularWork []string
	Unsubmitted []string
}

// frontMatter 文档头部元数据
type frontMatter struct {
	DocumentID  string   `yaml:"document_id"`
	Label       string   `yaml:"label"`
	GeneratedAt string   `yaml:"generated_at"`
	ReportCount int      `yaml:"report_count"`
	Unsubmitted []string `yaml:"unsubmitted"`
}

const bodyTemplate = `# 周报汇总 {{oneLine .Label}}

## 重点工作
{{range .KeyFocus}}- {{oneLine .}}
{{else}}- 无
{{end}}
## 常规工作
{{range .RegularWork}}- {{oneLine .}}
{{else}}- 无
{{end}}
## 未提交
{{if .Unsubmitted}}{{join .Unsubmitted "、"}}{{else}}全部已提交{{end}}
`

var body = template.Must(template.New("weekly-report").
	Funcs(template.FuncMap{"join": strings.Join, "oneLine": oneLine}).
	Parse(bodyTemplate))

// Renderer 生成周报文档
type Renderer struct {
	newID func() string
}

// NewRenderer 返回默认渲染器
func NewRenderer() *Renderer {
	return &Renderer{newID: uuid.NewString}
}

// ContentType 导出文档的 MIME 类型
const ContentType = "text/markdown; charset=utf-8"

// Render 输出带 YAML frontmatter 的 Markdown
func (r *Renderer) Render(doc Document) ([]byte, error) {
	unsubmitted := doc.Unsubmitted
	if unsubmitted == nil {
		unsubmitted = []string{}
	}
	fm, err := yaml.Marshal(frontMatter{
		DocumentID:  r.newID(),
		Label:       doc.Label,
		GeneratedAt: doc.GeneratedAt.Format(time.RFC3339),
		ReportCount: doc.ReportCount,
		Unsubmitted: unsubmitted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	if err := body.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render weekly report: %w", err)
	}
	return buf.Bytes(), nil
}

var lineBreaks = regexp.MustCompile(`\s*[\r\n]+\s*`)

// oneLine 把换行折叠为空格，列表项和标题不会被拆成多行
func oneLine(s string) string {
	return lineBreaks.ReplaceAllString(strings.TrimSpace(s), " ")
}

var unsafeFileChars = regexp.MustCompile(`[^0-9A-Za-z._-]+`)

// maxFileLabel 文件名中标签部分的最大长度
const maxFileLabel = 100

// FileName 根据标签生成下载文件名，如 "weekly-report_2024-06-03_2024-06-09.md"
func FileName(label string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(label, "_"), "_")
	if len(name) > maxFileLabel {
		name = strings.TrimRight(name[:maxFileLabel], "_")
	}
	if name == "" {
		return "weekly-report.md"
	}
	return "weekly-report_" + name + ".md"
}
