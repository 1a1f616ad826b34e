// Package topic 从近期搜索词中挖掘少量潜在主题（趋势洞察用，不参与排序）。
//
// 核心思想：
//   - 在搜索词文本上拟合一个独立的小向量空间（与商品空间无关）
//   - 用坍缩吉布斯采样的 LDA 把搜索词分配到 K 个主题
//   - 主题数随数据量自适应：K = min(MaxTopics, n/QueriesPerTopic)
//
// 数据不足（合格搜索词少于 MinQueries）时产出空列表，不是错误。
package topic

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/embedding"
)

// Extractor 持有主题挖掘参数。
type Extractor struct {
	// MinQueries 合格搜索词的最小数量，低于则不出主题
	MinQueries int

	// MaxTopics / QueriesPerTopic 自适应主题数的上限与粒度
	MaxTopics       int
	QueriesPerTopic int

	// MaxVocab 搜索词向量空间的词表上限
	MaxVocab int

	// TopTerms 每个主题输出的词数
	TopTerms int

	// Seed 采样随机种子（固定以保证确定性）
	Seed int64

	// Iterations 吉布斯采样轮数
	Iterations int
}

// NewExtractor 按引擎配置创建 Extractor。
func NewExtractor(cfg core.EngineConfig) *Extractor {
	return &Extractor{
		MinQueries:      cfg.MinTopicQueries,
		MaxTopics:       cfg.MaxTopics,
		QueriesPerTopic: cfg.QueriesPerTopic,
		MaxVocab:        cfg.MaxTopicVocab,
	}
}

// Extract 从搜索事件中挖掘主题，按权重降序返回。
// 输入应已按时间窗（近 7 天）截取。
func (x *Extractor) Extract(queries []core.QueryEvent) []core.Topic {
	x.normalize()

	// 合格搜索词：非空且长度 > 2
	texts := make([]string, 0, len(queries))
	for _, q := range queries {
		if t := strings.TrimSpace(q.Query); len(t) > 2 {
			texts = append(texts, t)
		}
	}
	if len(texts) < x.MinQueries {
		return nil
	}

	// 独立的小向量空间：1-2 gram，min/max 文档频率过滤
	space := embedding.Fit(texts, embedding.Config{
		MaxVocab:    x.MaxVocab,
		MinGram:     1,
		MaxGram:     2,
		MinDocFreq:  1,
		MaxDocRatio: 0.95,
	})
	if space == nil || len(space.IDF) == 0 {
		return nil
	}

	k := len(texts) / x.QueriesPerTopic
	if k > x.MaxTopics {
		k = x.MaxTopics
	}
	if k < 1 {
		k = 1
	}

	// 词表内的 token 序列（词表外的词对主题无贡献）
	docs := make([][]string, 0, len(texts))
	for _, t := range texts {
		var tokens []string
		for _, term := range embedding.Terms(t, space.MinGram, space.MaxGram) {
			if _, ok := space.IDF[term]; ok {
				tokens = append(tokens, term)
			}
		}
		if len(tokens) > 0 {
			docs = append(docs, tokens)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	return x.gibbs(docs, k)
}

// gibbs 运行坍缩吉布斯采样 LDA，返回主题列表。
func (x *Extractor) gibbs(docs [][]string, k int) []core.Topic {
	const (
		alpha = 0.1  // 文档-主题先验
		beta  = 0.01 // 主题-词先验
	)

	rng := rand.New(rand.NewSource(x.Seed))

	// 计数器
	docTopic := make([]map[int]int, len(docs)) // 文档 d 中分到主题 t 的 token 数
	topicTerm := make([]map[string]int, k)     // 主题 t 中词 w 的 token 数
	topicTotal := make([]int, k)               // 主题 t 的 token 总数
	assign := make([][]int, len(docs))         // 每个 token 的当前主题

	vocab := make(map[string]bool)
	for d, tokens := range docs {
		docTopic[d] = make(map[int]int)
		assign[d] = make([]int, len(tokens))
		for i, w := range tokens {
			t := rng.Intn(k)
			assign[d][i] = t
			docTopic[d][t]++
			if topicTerm[t] == nil {
				topicTerm[t] = make(map[string]int)
			}
			topicTerm[t][w]++
			topicTotal[t]++
			vocab[w] = true
		}
	}
	for t := 0; t < k; t++ {
		if topicTerm[t] == nil {
			topicTerm[t] = make(map[string]int)
		}
	}
	v := float64(len(vocab))

	probs := make([]float64, k)
	for iter := 0; iter < x.Iterations; iter++ {
		for d, tokens := range docs {
			for i, w := range tokens {
				old := assign[d][i]
				docTopic[d][old]--
				topicTerm[old][w]--
				topicTotal[old]--

				// p(t) ∝ (n_dt + α) · (n_tw + β) / (n_t + Vβ)
				var sum float64
				for t := 0; t < k; t++ {
					p := (float64(docTopic[d][t]) + alpha) *
						(float64(topicTerm[t][w]) + beta) /
						(float64(topicTotal[t]) + v*beta)
					probs[t] = p
					sum += p
				}
				r := rng.Float64() * sum
				next := k - 1
				for t := 0; t < k; t++ {
					r -= probs[t]
					if r <= 0 {
						next = t
						break
					}
				}

				assign[d][i] = next
				docTopic[d][next]++
				topicTerm[next][w]++
				topicTotal[next]++
			}
		}
	}

	// 汇总输出：权重 = 主题 token 占比；每主题取计数最高的 TopTerms 个词
	var total int
	for t := 0; t < k; t++ {
		total += topicTotal[t]
	}
	topics := make([]core.Topic, 0, k)
	for t := 0; t < k; t++ {
		if topicTotal[t] == 0 {
			continue
		}
		topics = append(topics, core.Topic{
			ID:     t,
			Terms:  topTerms(topicTerm[t], x.TopTerms),
			Weight: float64(topicTotal[t]) / float64(total),
		})
	}
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Weight > topics[j].Weight
	})
	return topics
}

// topTerms 按计数降序（同计数按字典序）取前 n 个词。
func topTerms(counts map[string]int, n int) []string {
	type tc struct {
		term  string
		count int
	}
	all := make([]tc, 0, len(counts))
	for term, count := range counts {
		if count > 0 {
			all = append(all, tc{term, count})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].term < all[j].term
	})
	if len(all) > n {
		all = all[:n]
	}
	terms := make([]string, len(all))
	for i, t := range all {
		terms[i] = t.term
	}
	return terms
}

func (x *Extractor) normalize() {
	if x.MinQueries <= 0 {
		x.MinQueries = 10
	}
	if x.MaxTopics <= 0 {
		x.MaxTopics = 10
	}
	if x.QueriesPerTopic <= 0 {
		x.QueriesPerTopic = 5
	}
	if x.MaxVocab <= 0 {
		x.MaxVocab = 1000
	}
	if x.TopTerms <= 0 {
		x.TopTerms = 10
	}
	if x.Iterations <= 0 {
		x.Iterations = 50
	}
}
