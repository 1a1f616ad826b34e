package embedding

import (
	"math"
	"sort"
)

// Scored 是一次相似度检索的单条结果。
type Scored struct {
	ID    string
	Score float64
}

// Cosine 计算两个稀疏向量的余弦相似度。
// 只遍历较小的向量，交集以外的维度乘积为零。
func Cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot, normA, normB float64
	for k, va := range a {
		normA += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Search 用查询向量对全部商品向量做余弦相似度检索。
// 低于 minSim 的候选直接丢弃（不返回零分条目）；结果按分数降序，
// 同分按 ID 升序保证确定性；limit > 0 时截断。
func Search(query map[string]float64, vectors map[string]map[string]float64, limit int, minSim float64) []Scored {
	if len(query) == 0 || len(vectors) == 0 {
		return nil
	}

	results := make([]Scored, 0, len(vectors))
	for id, vec := range vectors {
		sim := Cosine(query, vec)
		if sim >= minSim {
			results = append(results, Scored{ID: id, Score: sim})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
