package weekly

import "iter"

// Items 按原始顺序逐个产出 report 某一分区的 (工作项, 提交人) 对
func Items(r Report, s Section) iter.Seq2[Item, string] {
	return func(yield func(Item, string) bool) {
		for _, it := range r.Content.Section(s) {
			if !yield(it, r.Author) {
				return
			}
		}
	}
}

// SubmittedBy 返回已提交周报的作者集合，按首次出现顺序
func SubmittedBy(reports []Report) []string {
	seen := make(map[string]struct{}, len(reports))
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		if r.Status != StatusSubmitted {
			continue
		}
		if _, ok := seen[r.Author]; ok {
			continue
		}
		seen[r.Author] = struct{}{}
		out = append(out, r.Author)
	}
	return out
}
