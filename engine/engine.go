// Package engine 是 searchkit 的查询入口：持有当前存活的 ModelBundle，
// 把一次检索请求编排成 Recall → Filter → Rank → ReRank 的 Pipeline。
//
// 核心思想：训练与查询完全解耦。
//   - 训练器（trainer）是 Bundle 的唯一写入方，通过 Publish 原子替换
//   - 查询路径只读，任何时刻看到的都是一个完整一致的模型
//   - 模型缺失（从未训练）时所有查询优雅降级为空结果，不报错
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/filter"
	"github.com/rushteam/searchkit/pipeline"
	"github.com/rushteam/searchkit/rank"
	"github.com/rushteam/searchkit/recall"
	"github.com/rushteam/searchkit/rerank"
)

// DefaultLimit 是未指定返回数量时的默认值。
const DefaultLimit = 10

// Insights 是当前模型的概览信息（版本、热点主题、规模指标）。
type Insights struct {
	Version      int64       `json:"version"`
	TrainedAt    time.Time   `json:"trained_at"`
	Trained      bool        `json:"trained"`
	Topics       []core.Topic `json:"topics"`
	VectorCount  int         `json:"vector_count"`
	ClusterCount int         `json:"cluster_count"`
	ProfileCount int         `json:"profile_count"`
}

// Engine 是查询引擎，同时实现 core.BundleProvider 与 trainer.Publisher。
type Engine struct {
	// Filters 查询路径上的候选过滤器（可选，例如 CEL 规则过滤）
	Filters []filter.Filter

	cfg    core.EngineConfig
	logger zerolog.Logger
	bundle atomic.Pointer[core.ModelBundle]
}

// New 创建查询引擎，初始为"无模型"状态（空结果降级服务）。
func New(cfg core.EngineConfig, logger zerolog.Logger) *Engine {
	cfg.Normalize()
	e := &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "engine").Logger(),
	}
	e.bundle.Store(core.EmptyBundle())
	return e
}

// Live 返回当前存活的 Bundle，永不为 nil。
func (e *Engine) Live() *core.ModelBundle {
	if b := e.bundle.Load(); b != nil {
		return b
	}
	return core.EmptyBundle()
}

// Publish 原子替换当前模型。发布后的 Bundle 视为只读。
func (e *Engine) Publish(bundle *core.ModelBundle) {
	if bundle == nil {
		return
	}
	old := e.bundle.Swap(bundle)
	ev := e.logger.Info().Int64("version", bundle.Version).
		Int("vectors", len(bundle.Vectors)).
		Int("clusters", len(bundle.Clusters)).
		Int("profiles", len(bundle.Profiles))
	if old != nil && old.Version > 0 {
		ev = ev.Int64("replaced", old.Version)
	}
	ev.Msg("model bundle published")
}

// Recommend 执行一次个性化检索：语义召回 + 规则过滤 + 画像加权 + 截断。
//
// 匿名用户（userID 为空）或画像缺失时退化为纯相关性排序；
// 模型未训练时返回空列表。
func (e *Engine) Recommend(ctx context.Context, query, userID string, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	bundle := e.Live()
	rctx := &core.RecommendContext{
		UserID:  userID,
		Query:   query,
		Limit:   limit,
		Profile: bundle.Profile(userID),
	}

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Semantic{Bundles: e, MinSimilarity: e.cfg.MinSimilarity},
		&filter.FilterNode{Filters: e.Filters},
		&rank.Personalize{Bundles: e},
		&rerank.TopNNode{},
	}}
	return p.Run(ctx, rctx, nil)
}

// Related 返回与目标商品同属一个语义簇的其他商品（个性化排序后截断）。
//
// 商品不在任何簇中（上次训练后才上架）时返回空列表。
func (e *Engine) Related(ctx context.Context, productID, userID string, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	bundle := e.Live()
	rctx := &core.RecommendContext{
		UserID:  userID,
		Limit:   limit,
		Profile: bundle.Profile(userID),
		Params:  map[string]any{"product_id": productID},
	}

	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Cluster{Bundles: e, TopK: limit * 3},
		&filter.FilterNode{Filters: e.Filters},
		&rank.Personalize{Bundles: e},
		&rerank.TopNNode{},
	}}
	return p.Run(ctx, rctx, nil)
}

// TrendingInsights 返回当前模型的热点主题与规模概览。
func (e *Engine) TrendingInsights() Insights {
	b := e.Live()
	return Insights{
		Version:      b.Version,
		TrainedAt:    b.TrainedAt,
		Trained:      b.Trained(),
		Topics:       b.Topics,
		VectorCount:  len(b.Vectors),
		ClusterCount: len(b.Clusters),
		ProfileCount: len(b.Profiles),
	}
}

var _ core.BundleProvider = (*Engine)(nil)
