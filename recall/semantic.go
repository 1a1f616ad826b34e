// Package recall 提供基于当前模型的候选生成节点。
package recall

import (
	"context"

	"github.com/rushteam/searchkit/core"
	"github.com/rushteam/searchkit/embedding"
	"github.com/rushteam/searchkit/pipeline"
	"github.com/rushteam/searchkit/pkg/utils"
)

// Semantic 是语义召回节点：把查询文本变换到商品向量空间做余弦检索。
//
// 降级语义：当前 Bundle 尚未训练（Space 为 nil）或查询全部 OOV 时
// 返回空候选集，不报错。
type Semantic struct {
	// Bundles 提供当前存活的模型
	Bundles core.BundleProvider

	// TopK 候选集上限；<= 0 时取 rctx.Limit 的 3 倍（给过滤留余量）
	TopK int

	// MinSimilarity 相似度下限，低于则不进入候选集
	MinSimilarity float64
}

func (n *Semantic) Name() string        { return "recall.semantic" }
func (n *Semantic) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Semantic) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if n.Bundles == nil || rctx == nil || rctx.Query == "" {
		return nil, nil
	}
	bundle := n.Bundles.Live()
	if !bundle.Trained() {
		return nil, nil
	}

	minSim := n.MinSimilarity
	if minSim <= 0 {
		minSim = 0.1
	}
	topK := n.TopK
	if topK <= 0 && rctx.Limit > 0 {
		topK = rctx.Limit * 3
	}

	query := bundle.Space.Transform(rctx.Query)
	scored := embedding.Search(query, bundle.Vectors, topK, minSim)

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		if e, ok := bundle.Entry(s.ID); ok {
			it.Meta["category"] = e.Category
			it.Meta["brand"] = e.Brand
			it.Meta["price"] = e.EffectivePrice()
			it.Meta["stock"] = e.Stock
		}
		it.PutLabel("recall_source", utils.Label{Value: "semantic", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*Semantic)(nil)
