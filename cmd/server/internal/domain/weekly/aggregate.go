package weekly

import (
	"slices"
	"strconv"
	"strings"
)

// itemKey 工作项的复合去重键：文本 + 规范化标签
// 每个分量都带长度前缀，"ab"+["c"] 与 "a"+["bc"] 不会碰撞
type itemKey string

func keyOf(text string, canonicalTags []string) itemKey {
	var b strings.Builder
	writePart := func(s string) {
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	writePart(text)
	b.WriteString(strconv.Itoa(len(canonicalTags)))
	b.WriteByte('#')
	for _, t := range canonicalTags {
		writePart(t)
	}
	return itemKey(b.String())
}

// CanonicalTags 返回排序去重后的标签副本，结果永不为 nil
func CanonicalTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	slices.Sort(out)
	return slices.Compact(out)
}

type accumulator struct {
	text       string
	tags       []string
	submitters []string
	seen       map[string]struct{}
}

func (a *accumulator) add(submitter string) {
	if _, ok := a.seen[submitter]; ok {
		return
	}
	a.seen[submitter] = struct{}{}
	a.submitters = append(a.submitters, submitter)
}

// orderedAccumulators 保留插入顺序的 key → accumulator 映射，仅在单次调用内存活
type orderedAccumulators struct {
	index map[itemKey]*accumulator
	order []*accumulator
}

func newOrderedAccumulators() *orderedAccumulators {
	return &orderedAccumulators{index: make(map[itemKey]*accumulator)}
}

func (o *orderedAccumulators) fold(it Item, submitter string) {
	tags := CanonicalTags(it.Tags)
	key := keyOf(it.Text, tags)
	acc, ok := o.index[key]
	if !ok {
		acc = &accumulator{text: it.Text, tags: tags, seen: make(map[string]struct{})}
		o.index[key] = acc
		o.order = append(o.order, acc)
	}
	acc.add(submitter)
}

func (o *orderedAccumulators) items() []AggregatedItem {
	out := make([]AggregatedItem, 0, len(o.order))
	for _, acc := range o.order {
		out = append(out, AggregatedItem{
			Text:       acc.text,
			Tags:       acc.tags,
			Submitters: acc.submitters,
		})
	}
	return out
}

// Aggregate 合并多份周报，按分区独立去重
//
// 只有状态为 submitted 的周报参与汇总；两个分区之间从不合并。
// 结果按 key 首次出现的顺序排列，空输入返回两个空列表。
func Aggregate(reports []Report) Aggregation {
	return Aggregation{
		KeyFocus:    aggregateSection(reports, SectionKeyFocus),
		RegularWork: aggregateSection(reports, SectionRegularWork),
	}
}

func aggregateSection(reports []Report, s Section) []AggregatedItem {
	acc := newOrderedAccumulators()
	for _, r := range reports {
		if r.Status != StatusSubmitted {
			continue
		}
		for it, submitter := range Items(r, s) {
			acc.fold(it, submitter)
		}
	}
	return acc.items()
}
