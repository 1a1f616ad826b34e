package core

import (
	"time"

	"github.com/rushteam/searchkit/embedding"
)

// Topic 是从近期搜索词中挖掘出的一个潜在主题（热点）。
type Topic struct {
	ID     int      `json:"id"`
	Terms  []string `json:"terms"`  // 权重最高的若干词
	Weight float64  `json:"weight"` // 主题占比（所有主题之和为 1）
}

// ModelBundle 是一个训练周期的全部产物，也是引擎唯一的共享状态。
//
// 核心不变量：发布即只读。
//   - 训练器构建一个全新的 Bundle，通过单次原子指针替换发布
//   - 读路径永远看到"整体旧"或"整体新"，不存在新旧混合
//   - 任何对已发布 Bundle 的字段都不允许原地修改
//
// 这也是训练与查询可以安全并发的全部前提。
type ModelBundle struct {
	// Version 是单调递增的版本令牌（训练开始时刻的 UnixNano）
	Version   int64     `json:"version"`
	TrainedAt time.Time `json:"trained_at"`

	// Space 是拟合好的加权词项向量空间；nil 表示尚未训练（降级服务）
	Space *embedding.Space `json:"space"`

	// Vectors 是商品向量：商品 ID -> 稀疏向量
	Vectors map[string]map[string]float64 `json:"vectors"`

	// Clusters 是语义簇划分：簇 ID -> 成员商品 ID；
	// ClusterOf 是反向索引，保证查询为 O(1)
	Clusters  map[int][]string `json:"clusters"`
	ClusterOf map[string]int   `json:"cluster_of"`

	// Topics 是按权重降序的热点主题列表
	Topics []Topic `json:"topics"`

	// Profiles 是用户偏好画像：用户 ID -> 画像
	Profiles map[string]*UserProfile `json:"profiles"`

	// Catalog 是训练时的商品快照索引，查询期加权/过滤需要
	// 商品的类目/品牌/价格/库存信息
	Catalog map[string]CatalogEntry `json:"catalog"`
}

// EmptyBundle 返回一个可安全服务（全部返回空结果）的零值 Bundle。
// 进程启动且无任何历史模型时使用。
func EmptyBundle() *ModelBundle {
	return &ModelBundle{
		Vectors:   make(map[string]map[string]float64),
		Clusters:  make(map[int][]string),
		ClusterOf: make(map[string]int),
		Profiles:  make(map[string]*UserProfile),
		Catalog:   make(map[string]CatalogEntry),
	}
}

// Trained 判断 Bundle 是否来自一次成功的训练。
func (b *ModelBundle) Trained() bool {
	return b != nil && b.Space != nil && b.Version > 0
}

// Entry 按 ID 查商品快照。
func (b *ModelBundle) Entry(productID string) (CatalogEntry, bool) {
	if b == nil || b.Catalog == nil {
		return CatalogEntry{}, false
	}
	e, ok := b.Catalog[productID]
	return e, ok
}

// Profile 按用户 ID 查画像；未知用户返回 nil（匿名语义）。
func (b *ModelBundle) Profile(userID string) *UserProfile {
	if b == nil || userID == "" || b.Profiles == nil {
		return nil
	}
	return b.Profiles[userID]
}

// BundleProvider 提供当前"存活"的 Bundle。
//
// 由 engine 实现（原子指针读取）；recall/rank 节点通过它取模型，
// 避免节点直接依赖 engine 造成环。
type BundleProvider interface {
	Live() *ModelBundle
}
