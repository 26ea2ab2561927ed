package simhash

import (
	"math/bits"
	"strings"

	"github.com/go-dedup/simhash"
)

// Threshold 工作项文本相似阈值：汉明距离 <= Threshold 视为相似
// 工作项通常是一句话，阈值比长文本检索要收紧得多
const Threshold = 10

// itemFeatureSet 实现 simhash.FeatureSet，使用字符级 bigram 特征
type itemFeatureSet struct {
	text string
}

// GetFeatures 提取文本特征
// 中文短句用 bigram 比按空格分词稳定
func (f itemFeatureSet) GetFeatures() []simhash.Feature {
	text := strings.TrimSpace(f.text)
	if text == "" {
		return []simhash.Feature{}
	}

	runes := []rune(text)
	features := make([]simhash.Feature, 0, len(runes))
	for i := 0; i < len(runes)-1; i++ {
		r1, r2 := runes[i], runes[i+1]
		if isPunctuation(r1) || isPunctuation(r2) {
			continue
		}
		features = append(features, simhash.NewFeature([]byte(string([]rune{r1, r2}))))
	}

	// 文本很短时补充单字特征
	if len(runes) < 4 {
		for _, r := range runes {
			if !isPunctuation(r) {
				features = append(features, simhash.NewFeature([]byte(string(r))))
			}
		}
	}
	return features
}

func isPunctuation(r rune) bool {
	switch r {
	case ' ', ',', '.', '!', '?', '-', '_', '/', '(', ')', '\t', '\n',
		'：', '、', '。', '，', '；', '！', '？', '（', '）':
		return true
	}
	return false
}

// Fingerprint 计算文本的 64 位 SimHash 指纹
func Fingerprint(text string) uint64 {
	return simhash.NewSimhash().GetSimhash(itemFeatureSet{text: text})
}

// HammingDistance 两个指纹不同位的数量（0-64）
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// SimilarPairs 返回 texts 中两两相似的下标对 (i<j)
// 空文本不参与比较
func SimilarPairs(texts []string) [][2]int {
	prints := make([]uint64, len(texts))
	for i, t := range texts {
		prints[i] = Fingerprint(t)
	}
	var pairs [][2]int
	for i := 0; i < len(texts); i++ {
		if strings.TrimSpace(texts[i]) == "" {
			continue
		}
		for j := i + 1; j < len(texts); j++ {
			if strings.TrimSpace(texts[j]) == "" {
				continue
			}
			if HammingDistance(prints[i], prints[j]) <= Threshold {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}
