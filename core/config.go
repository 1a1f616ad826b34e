package core

import "time"

// EngineConfig 汇总引擎各组件的阈值参数，零值字段由 Normalize 填默认值。
// 这些默认值即引擎的参考语义，yaml 配置只做覆盖。
type EngineConfig struct {
	// 语料构建
	PriceLowThreshold  float64 // 低于此实际售价打 budget 词
	PriceHighThreshold float64 // 高于此实际售价打 premium 词
	HighStockThreshold int     // 高于此库存打 in-stock 词
	MaxReviewsPerDoc   int     // 每个商品最多拼接的评论数

	// 向量空间
	MaxVocab      int     // 词表上限
	MinDocFreq    int     // 词项最小文档频次
	MaxDocRatio   float64 // 词项最大文档频率占比
	MinSimilarity float64 // 召回的余弦相似度下限

	// 聚类
	MaxClusters     int // 簇数上限
	ProductsPerSlot int // 每个簇摊到的商品数（k = n / 此值）

	// 主题挖掘
	TopicWindow     time.Duration // 近期搜索词窗口
	MinTopicQueries int           // 低于此数量不出主题
	MaxTopics       int           // 主题数上限
	QueriesPerTopic int           // 每个主题摊到的搜索数
	MaxTopicVocab   int           // 搜索词向量空间的词表上限

	// 画像
	ProfileWindow time.Duration // 用户行为窗口

	// 重训触发
	RetrainInterval time.Duration // 调度唤醒间隔，亦是"过期"判据
	RetrainQueries  int64         // 新增搜索事件数阈值

	// 持久化
	ArtifactTTL time.Duration // blob 产物的 TTL
}

// DefaultEngineConfig 返回参考默认配置。
func DefaultEngineConfig() EngineConfig {
	cfg := EngineConfig{}
	cfg.Normalize()
	return cfg
}

// Normalize 为零值字段填默认值，保证配置总是可用。
func (c *EngineConfig) Normalize() {
	if c.PriceLowThreshold <= 0 {
		c.PriceLowThreshold = 50
	}
	if c.PriceHighThreshold <= 0 {
		c.PriceHighThreshold = 500
	}
	if c.HighStockThreshold <= 0 {
		c.HighStockThreshold = 10
	}
	if c.MaxReviewsPerDoc <= 0 {
		c.MaxReviewsPerDoc = 20
	}
	if c.MaxVocab <= 0 {
		c.MaxVocab = 10000
	}
	if c.MinDocFreq <= 0 {
		c.MinDocFreq = 2
	}
	if c.MaxDocRatio <= 0 {
		c.MaxDocRatio = 0.8
	}
	if c.MinSimilarity <= 0 {
		c.MinSimilarity = 0.1
	}
	if c.MaxClusters <= 0 {
		c.MaxClusters = 20
	}
	if c.ProductsPerSlot <= 0 {
		c.ProductsPerSlot = 10
	}
	if c.TopicWindow <= 0 {
		c.TopicWindow = 7 * 24 * time.Hour
	}
	if c.MinTopicQueries <= 0 {
		c.MinTopicQueries = 10
	}
	if c.MaxTopics <= 0 {
		c.MaxTopics = 10
	}
	if c.QueriesPerTopic <= 0 {
		c.QueriesPerTopic = 5
	}
	if c.MaxTopicVocab <= 0 {
		c.MaxTopicVocab = 1000
	}
	if c.ProfileWindow <= 0 {
		c.ProfileWindow = 90 * 24 * time.Hour
	}
	if c.RetrainInterval <= 0 {
		c.RetrainInterval = 6 * time.Hour
	}
	if c.RetrainQueries <= 0 {
		c.RetrainQueries = 1000
	}
	if c.ArtifactTTL <= 0 {
		c.ArtifactTTL = 24 * time.Hour
	}
}
