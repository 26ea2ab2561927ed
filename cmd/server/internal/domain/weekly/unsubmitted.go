package weekly

// Unsubmitted 计算应提交但未提交周报的成员
// 结果保持 eligible 的原始顺序；eligible 中重复的用户名只保留一次
func Unsubmitted(eligible, submittedBy []string) []string {
	done := make(map[string]struct{}, len(submittedBy))
	for _, u := range submittedBy {
		done[u] = struct{}{}
	}
	out := []string{}
	for _, u := range eligible {
		if _, ok := done[u]; ok {
			continue
		}
		done[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
