package weekly

// Status 周报生命周期状态
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

// Valid 判断状态值是否合法
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// Section 周报中的工作分区
type Section string

const (
	SectionKeyFocus    Section = "keyFocus"    // 重点工作
	SectionRegularWork Section = "regularWork" // 常规工作
)

// Sections 按固定顺序列出全部分区
var Sections = []Section{SectionKeyFocus, SectionRegularWork}

// Item 周报中的一行工作项
// Completed 与 Notes 属于原始记录的一部分，汇总时不参与比较
type Item struct {
	Text      string   `json:"text"`
	Completed bool     `json:"completed"`
	Notes     string   `json:"notes,omitempty"`
	Tags      []string `json:"tags"`
}

// Content 周报内容的规范化结构
type Content struct {
	KeyFocus    []Item `json:"keyFocus"`
	RegularWork []Item `json:"regularWork"`
}

// Section 返回指定分区的工作项列表，未知分区返回 nil
func (c Content) Section(s Section) []Item {
	switch s {
	case SectionKeyFocus:
		return c.KeyFocus
	case SectionRegularWork:
		return c.RegularWork
	}
	return nil
}

// Report 一份已解析的周报
type Report struct {
	ID      int64
	Author  string
	Status  Status
	Content Content
}

// AggregatedItem 跨周报去重后的工作项
// Tags 为排序后的规范标签列表，Submitters 按首次出现顺序排列且不重复
type AggregatedItem struct {
	Text       string   `json:"text"`
	Tags       []string `json:"tags"`
	Submitters []string `json:"submitters"`
}

// Aggregation 两个分区各自独立的汇总结果
type Aggregation struct {
	KeyFocus    []AggregatedItem `json:"keyFocus"`
	RegularWork []AggregatedItem `json:"regularWork"`
}

// Section 返回指定分区的汇总结果
func (a Aggregation) Section(s Section) []AggregatedItem {
	switch s {
	case SectionKeyFocus:
		return a.KeyFocus
	case SectionRegularWork:
		return a.RegularWork
	}
	return nil
}

// Empty 判断两个分区是否都没有任何工作项
func (a Aggregation) Empty() bool {
	return len(a.KeyFocus) == 0 && len(a.RegularWork) == 0
}
