// Package embedding 实现商品语料上的稀疏加权词项向量空间（TF-IDF 族）。
//
// 核心思想：
//   - 训练期在语料上拟合词表与 IDF 权重，得到一个 Space
//   - 商品文档与查询文本都通过同一个 Space 变换到同一空间
//   - 查询期不重新拟合：词表外（OOV）的词贡献为零
//
// 向量采用 map[string]float64 稀疏表示，词表万级、单文档百级时
// 比稠密表示既省内存又省计算。
package embedding

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Config 是向量空间的拟合参数。
type Config struct {
	// MaxVocab 词表上限；超出时保留文档频次最高的词项
	MaxVocab int

	// MinGram / MaxGram n-gram 长度范围
	MinGram int
	MaxGram int

	// MinDocFreq 词项最少出现的文档数，低于则丢弃（去噪）
	MinDocFreq int

	// MaxDocRatio 词项最多出现的文档占比，高于则丢弃（去停用词）
	MaxDocRatio float64

	// SublinearTF 词频取 1+ln(tf) 而非原始计数
	SublinearTF bool
}

// Space 是拟合好的向量空间状态：词表与逆文档频率权重。
// 拟合完成后只读，可被任意多个 goroutine 并发 Transform。
type Space struct {
	IDF       map[string]float64 `json:"idf"`
	MinGram   int                `json:"min_gram"`
	MaxGram   int                `json:"max_gram"`
	Sublinear bool               `json:"sublinear"`
	DocCount  int                `json:"doc_count"`
}

// Fit 在语料上拟合向量空间。语料为空时返回 nil（降级语义，调用方按未训练处理）。
func Fit(docs []string, cfg Config) *Space {
	if len(docs) == 0 {
		return nil
	}
	if cfg.MinGram <= 0 {
		cfg.MinGram = 1
	}
	if cfg.MaxGram < cfg.MinGram {
		cfg.MaxGram = cfg.MinGram
	}

	// 统计文档频次（每个文档内去重）
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range Terms(doc, cfg.MinGram, cfg.MaxGram) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	// 频次过滤
	n := len(docs)
	maxDF := n
	if cfg.MaxDocRatio > 0 {
		maxDF = int(cfg.MaxDocRatio * float64(n))
		if maxDF < 1 {
			maxDF = 1
		}
	}
	type termDF struct {
		term string
		df   int
	}
	kept := make([]termDF, 0, len(df))
	for term, freq := range df {
		if cfg.MinDocFreq > 1 && freq < cfg.MinDocFreq {
			continue
		}
		if freq > maxDF {
			continue
		}
		kept = append(kept, termDF{term, freq})
	}

	// 词表截断：按 df 降序，同频按字典序，保证拟合结果确定
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].df != kept[j].df {
			return kept[i].df > kept[j].df
		}
		return kept[i].term < kept[j].term
	})
	if cfg.MaxVocab > 0 && len(kept) > cfg.MaxVocab {
		kept = kept[:cfg.MaxVocab]
	}

	// 平滑 IDF：ln((1+n)/(1+df)) + 1，避免除零且保证权重为正
	idf := make(map[string]float64, len(kept))
	for _, t := range kept {
		idf[t.term] = math.Log(float64(1+n)/float64(1+t.df)) + 1
	}

	return &Space{
		IDF:       idf,
		MinGram:   cfg.MinGram,
		MaxGram:   cfg.MaxGram,
		Sublinear: cfg.SublinearTF,
		DocCount:  n,
	}
}

// Transform 将文本变换为该空间下的 L2 归一化稀疏向量。
// 词表外的词直接忽略；全部 OOV 时返回空向量。
func (s *Space) Transform(text string) map[string]float64 {
	if s == nil || len(s.IDF) == 0 {
		return map[string]float64{}
	}

	tf := make(map[string]float64)
	for _, term := range Terms(text, s.MinGram, s.MaxGram) {
		if _, ok := s.IDF[term]; ok {
			tf[term]++
		}
	}
	if len(tf) == 0 {
		return map[string]float64{}
	}

	vec := make(map[string]float64, len(tf))
	var norm float64
	for term, count := range tf {
		if s.Sublinear {
			count = 1 + math.Log(count)
		}
		w := count * s.IDF[term]
		vec[term] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for term := range vec {
			vec[term] /= norm
		}
	}
	return vec
}

// Terms 分词并展开为 [minGram, maxGram] 的 n-gram 列表。
// 分词规则：小写化后按非字母数字切分。
func Terms(text string, minGram, maxGram int) []string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, len(tokens)*(maxGram-minGram+1))
	for n := minGram; n <= maxGram; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
